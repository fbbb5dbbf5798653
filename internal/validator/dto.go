package validator

// StartSessionRequest opens a new session on a test
type StartSessionRequest struct {
	TestID uint `json:"test_id" validate:"required"`
}

// SubmitAnswerRequest records or resets one answer unit.
//
// OptionID targets a choice option, RowID with ColumnID a matrix row mapping,
// NumberValue a slider and BoolValue a yes/no question. With Reset set the targeted
// unit is removed instead; a matrix reset needs only the row.
type SubmitAnswerRequest struct {
	QuestionID  uint     `json:"question_id" validate:"required"`
	OptionID    *uint    `json:"option_id" validate:"omitempty,gt=0"`
	RowID       *uint    `json:"row_id" validate:"omitempty,gt=0"`
	ColumnID    *uint    `json:"column_id" validate:"omitempty,gt=0"`
	NumberValue *float64 `json:"number_value"`
	BoolValue   *bool    `json:"bool_value"`
	Reset       bool     `json:"reset"`
}
