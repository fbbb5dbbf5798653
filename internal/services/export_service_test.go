package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportTestResults(t *testing.T) {
	h := newHarness(t)
	session := h.start(t, studentID)
	h.answer(t, session.ID, studentID, correctRequests())
	_, err := h.sessions.SubmitSession(context.Background(), session.ID, studentID)
	require.NoError(t, err)
	h.start(t, "student-2")

	export := NewExportService(h.store, discardLogger())
	data, err := export.ExportTestResults(context.Background(), 1, teacherID)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the one completed session")
	assert.Equal(t, resultsHeaders, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, studentID, rows[1][1])
	assert.Equal(t, "14", rows[1][4])
	assert.Equal(t, "100", rows[1][6])
}

func TestExportTestResults_Authorization(t *testing.T) {
	h := newHarness(t)
	export := NewExportService(h.store, discardLogger())

	_, err := export.ExportTestResults(context.Background(), 1, "teacher-2")
	assert.Equal(t, KindForbidden, ErrorKind(err))

	_, err = export.ExportTestResults(context.Background(), 404, teacherID)
	assert.ErrorIs(t, err, ErrTestNotFound)
}
