package models

import (
	"fmt"
)

type QuestionType string

const (
	SingleChoice      QuestionType = "single_choice"
	MultipleChoice    QuestionType = "multiple_choice"
	TableSingleChoice QuestionType = "table_single_choice"
	Ordering          QuestionType = "ordering"
	Slider            QuestionType = "slider"
	YesNo             QuestionType = "yes_no"
)

// Question is the persisted question row. Only the fields of its type are meaningful;
// use Body to get the typed view.
type Question struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	TestID uint         `json:"test_id" gorm:"not null;index"`
	Order  int          `json:"order" gorm:"not null;default:0"`
	Type   QuestionType `json:"type" gorm:"not null;size:32"`
	Text   string       `json:"text" gorm:"type:text;not null"`
	Points float64      `json:"points" gorm:"not null;default:1"`

	// SingleChoice / MultipleChoice
	Options []ChoiceOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`

	// TableSingleChoice / Ordering
	Rows    []MatrixRow    `json:"rows,omitempty" gorm:"foreignKey:QuestionID"`
	Columns []MatrixColumn `json:"columns,omitempty" gorm:"foreignKey:QuestionID"`

	// Slider
	SliderMin    *float64 `json:"slider_min,omitempty"`
	SliderMax    *float64 `json:"slider_max,omitempty"`
	SliderStep   *float64 `json:"slider_step,omitempty"`
	SliderTarget *float64 `json:"slider_target,omitempty"`

	// YesNo
	YesNoTarget *bool `json:"yes_no_target,omitempty"`
}

func (Question) TableName() string {
	return "test_questions"
}

type ChoiceOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Order      int    `json:"order" gorm:"not null;default:0"`
	Text       string `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
}

func (ChoiceOption) TableName() string {
	return "question_options"
}

type MatrixRow struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	QuestionID      uint   `json:"question_id" gorm:"not null;index"`
	Order           int    `json:"order" gorm:"not null;default:0"`
	Text            string `json:"text" gorm:"type:text;not null"`
	CorrectColumnID uint   `json:"correct_column_id" gorm:"not null"`
}

func (MatrixRow) TableName() string {
	return "question_rows"
}

type MatrixColumn struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Order      int    `json:"order" gorm:"not null;default:0"`
	Text       string `json:"text" gorm:"type:text;not null"`
}

func (MatrixColumn) TableName() string {
	return "question_columns"
}

// ===== TYPED QUESTION BODIES =====

// QuestionBody is the closed set of question variants. Every switch over it must
// handle all six cases; the unexported marker keeps the set closed to this package.
type QuestionBody interface {
	questionBody()
}

type SingleChoiceBody struct {
	Options []ChoiceOption
}

type MultipleChoiceBody struct {
	Options []ChoiceOption
}

type TableSingleChoiceBody struct {
	Rows    []MatrixRow
	Columns []MatrixColumn
}

type OrderingBody struct {
	Rows    []MatrixRow
	Columns []MatrixColumn
}

type SliderBody struct {
	Min    float64
	Max    float64
	Step   float64
	Target float64
}

type YesNoBody struct {
	Target bool
}

func (SingleChoiceBody) questionBody()      {}
func (MultipleChoiceBody) questionBody()    {}
func (TableSingleChoiceBody) questionBody() {}
func (OrderingBody) questionBody()          {}
func (SliderBody) questionBody()            {}
func (YesNoBody) questionBody()             {}

// Body converts the persisted row into its typed variant.
func (q *Question) Body() (QuestionBody, error) {
	switch q.Type {
	case SingleChoice:
		return SingleChoiceBody{Options: q.Options}, nil
	case MultipleChoice:
		return MultipleChoiceBody{Options: q.Options}, nil
	case TableSingleChoice:
		return TableSingleChoiceBody{Rows: q.Rows, Columns: q.Columns}, nil
	case Ordering:
		return OrderingBody{Rows: q.Rows, Columns: q.Columns}, nil
	case Slider:
		if q.SliderMin == nil || q.SliderMax == nil || q.SliderTarget == nil {
			return nil, fmt.Errorf("slider question %d has no range or target", q.ID)
		}
		body := SliderBody{Min: *q.SliderMin, Max: *q.SliderMax, Target: *q.SliderTarget}
		if q.SliderStep != nil {
			body.Step = *q.SliderStep
		}
		return body, nil
	case YesNo:
		if q.YesNoTarget == nil {
			return nil, fmt.Errorf("yes/no question %d has no target", q.ID)
		}
		return YesNoBody{Target: *q.YesNoTarget}, nil
	default:
		return nil, fmt.Errorf("unsupported question type: %s", q.Type)
	}
}

// HasOption reports whether optionID is one of the question's choice options.
func (q *Question) HasOption(optionID uint) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

func (q *Question) HasRow(rowID uint) bool {
	for _, r := range q.Rows {
		if r.ID == rowID {
			return true
		}
	}
	return false
}

func (q *Question) HasColumn(columnID uint) bool {
	for _, c := range q.Columns {
		if c.ID == columnID {
			return true
		}
	}
	return false
}
