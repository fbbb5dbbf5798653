package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool { return &v }

func TestValidateSubmitAnswerRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		req      SubmitAnswerRequest
		wantRule string
	}{
		{
			name: "option submission",
			req:  SubmitAnswerRequest{QuestionID: 1, OptionID: uintPtr(3)},
		},
		{
			name: "matrix submission",
			req:  SubmitAnswerRequest{QuestionID: 1, RowID: uintPtr(2), ColumnID: uintPtr(5)},
		},
		{
			name: "matrix row reset without column",
			req:  SubmitAnswerRequest{QuestionID: 1, RowID: uintPtr(2), Reset: true},
		},
		{
			name: "reset of single valued question",
			req:  SubmitAnswerRequest{QuestionID: 1, Reset: true},
		},
		{
			name: "zero slider value is a value",
			req:  SubmitAnswerRequest{QuestionID: 1, NumberValue: floatPtr(0)},
		},
		{
			name:     "missing question",
			req:      SubmitAnswerRequest{BoolValue: boolPtr(true)},
			wantRule: "required",
		},
		{
			name:     "two value groups",
			req:      SubmitAnswerRequest{QuestionID: 1, BoolValue: boolPtr(true), NumberValue: floatPtr(1)},
			wantRule: "single_value",
		},
		{
			name:     "no value without reset",
			req:      SubmitAnswerRequest{QuestionID: 1},
			wantRule: "value_required",
		},
		{
			name:     "row without column",
			req:      SubmitAnswerRequest{QuestionID: 1, RowID: uintPtr(2)},
			wantRule: "required_with_row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.req)
			if tt.wantRule == "" {
				assert.NoError(t, err)
				return
			}

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)

			rules := make([]string, len(verrs))
			for i, e := range verrs {
				rules[i] = e.Rule
			}
			assert.Contains(t, rules, tt.wantRule)
		})
	}
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	err := New().Validate(&StartSessionRequest{})

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "test_id", verrs[0].Field)
	assert.Equal(t, "is required", verrs[0].Message)
}
