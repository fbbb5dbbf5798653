package models

import (
	"time"
)

// ===== PRESENTATION VIEWS =====

// SessionView is a materialized, shuffled view of a session. Correctness fields are
// only populated for the teacher view.
type SessionView struct {
	SessionID    uint           `json:"session_id"`
	TestID       uint           `json:"test_id"`
	TestTitle    string         `json:"test_title"`
	StudentID    string         `json:"student_id"`
	StartedAt    time.Time      `json:"started_at"`
	AutoFinishAt *time.Time     `json:"auto_finish_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	IsCompleted  bool           `json:"is_completed"`
	Score        *float64       `json:"score,omitempty"`
	MaxScore     float64        `json:"max_score"`
	Questions    []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID      uint            `json:"id"`
	Type    QuestionType    `json:"type"`
	Text    string          `json:"text"`
	Points  float64         `json:"points"`
	Options []OptionView    `json:"options,omitempty"`
	Rows    []RowView       `json:"rows,omitempty"`
	Columns []ColumnView    `json:"columns,omitempty"`
	Slider  *SliderView     `json:"slider,omitempty"`
	Answer  *AnswerSnapshot `json:"answer,omitempty"`

	// Teacher view only
	CorrectBool   *bool    `json:"correct_bool,omitempty"`
	ReceivedScore *float64 `json:"received_score,omitempty"`
}

type OptionView struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type RowView struct {
	ID              uint   `json:"id"`
	Text            string `json:"text"`
	CorrectColumnID *uint  `json:"correct_column_id,omitempty"`
}

type ColumnView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type SliderView struct {
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Step   float64  `json:"step"`
	Target *float64 `json:"target,omitempty"`
}

// AnswerSnapshot is what the student has recorded for one question so far.
type AnswerSnapshot struct {
	SelectedOptionIDs []uint        `json:"selected_option_ids,omitempty"`
	RowColumns        map[uint]uint `json:"row_columns,omitempty"`
	NumberValue       *float64      `json:"number_value,omitempty"`
	BoolValue         *bool         `json:"bool_value,omitempty"`
}

// SessionResult is one row of a test's results export.
type SessionResult struct {
	SessionID        uint       `json:"session_id"`
	StudentID        string     `json:"student_id"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at"`
	Score            float64    `json:"score"`
	MaxScore         float64    `json:"max_score"`
	RewardExperience float64    `json:"reward_experience"`
	RewardCoins      int        `json:"reward_coins"`
}
