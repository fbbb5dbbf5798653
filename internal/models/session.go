package models

import (
	"fmt"
	"time"
)

// Session is one student's timed run through a test.
type Session struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	TestID    uint   `json:"test_id" gorm:"not null;index"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255"`

	// RandomSeed drives every presentation-order recomputation. Written once at start.
	RandomSeed int64 `json:"-" gorm:"not null"`

	// Timing
	StartedAt    time.Time  `json:"started_at" gorm:"not null"`
	AutoFinishAt *time.Time `json:"auto_finish_at" gorm:"index:idx_session_expiry,priority:2"`
	FinishedAt   *time.Time `json:"finished_at"`

	// Completion
	IsCompleted bool    `json:"is_completed" gorm:"not null;default:false;index:idx_session_expiry,priority:1"`
	Score       float64 `json:"score" gorm:"not null;default:0"`

	// ActiveStudentID mirrors StudentID while the session is open and is cleared on completion.
	// Its unique index is what enforces one active session per student.
	ActiveStudentID *string `json:"-" gorm:"uniqueIndex:idx_one_active_session;size:255"`

	// Settlement applied when this session completed; negated on deletion or rescoring.
	RewardExperience float64 `json:"reward_experience" gorm:"not null;default:0"`
	RewardCoins      int     `json:"reward_coins" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (Session) TableName() string {
	return "test_sessions"
}

// IsExpiredAt reports whether the session's time limit has passed at now.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return s.AutoFinishAt != nil && !now.Before(*s.AutoFinishAt)
}

// Slot keys of an answer row within (session, question).
const (
	SlotSingle = "single"
)

func OptionSlot(optionID uint) string {
	return fmt.Sprintf("option:%d", optionID)
}

func RowSlot(rowID uint) string {
	return fmt.Sprintf("row:%d", rowID)
}

// Answer is one recorded answer unit. Single-valued types use one row per question,
// MultipleChoice one row per selected option, matrix types one row per matrix row.
type Answer struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	SessionID  uint   `json:"session_id" gorm:"not null;uniqueIndex:idx_answer_slot,priority:1"`
	QuestionID uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_slot,priority:2;index"`
	SlotKey    string `json:"-" gorm:"not null;size:64;uniqueIndex:idx_answer_slot,priority:3"`

	SelectedOptionID *uint    `json:"selected_option_id,omitempty"`
	SelectedRowID    *uint    `json:"selected_row_id,omitempty"`
	SelectedColumnID *uint    `json:"selected_column_id,omitempty"`
	NumberValue      *float64 `json:"number_value,omitempty"`
	BoolValue        *bool    `json:"bool_value,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "session_answers"
}
