package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
)

// recordingPool captures statements instead of talking to a server
type recordingPool struct {
	statements   []string
	rowsAffected int64
}

func (p *recordingPool) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (p *recordingPool) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	p.statements = append(p.statements, query)
	return driver.RowsAffected(p.rowsAffected), nil
}

func (p *recordingPool) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("query not supported")
}

func (p *recordingPool) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func newRecordingDB(t *testing.T, pool *recordingPool) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: pool}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestMarkCompleted_GuardsOnIncompleteRow(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		wantWon      bool
	}{
		{"first caller wins", 1, true},
		{"already completed", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &recordingPool{rowsAffected: tt.rowsAffected}
			repo := NewSessionPostgreSQL(newRecordingDB(t, pool))

			won, err := repo.MarkCompleted(t.Context(), 7, time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC))
			require.NoError(t, err)
			assert.Equal(t, tt.wantWon, won)

			require.Len(t, pool.statements, 1)
			stmt := pool.statements[0]
			assert.Contains(t, stmt, `UPDATE "test_sessions"`)
			assert.Contains(t, stmt, "is_completed = $")
			assert.Contains(t, stmt, `"active_student_id"=`)
		})
	}
}

func TestSessionSchema_OneActiveSessionIndex(t *testing.T) {
	s, err := schema.Parse(&models.Session{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	idx := s.LookIndex("idx_one_active_session")
	require.NotNil(t, idx)
	assert.Equal(t, "UNIQUE", idx.Class)
	require.Len(t, idx.Fields, 1)
	assert.Equal(t, "active_student_id", idx.Fields[0].DBName)
}
