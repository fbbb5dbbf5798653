package models

import (
	"time"
)

type AccessMode string

const (
	AccessPrivate AccessMode = "private"
	AccessGroup   AccessMode = "group"
	AccessPublic  AccessMode = "public"
)

// TestDefinition is the authored test. It is always read live; sessions never snapshot it.
type TestDefinition struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	AuthorID         string     `json:"author_id" gorm:"not null;index;size:255"`
	Title            string     `json:"title" gorm:"not null;size:200"`
	DurationMinutes  int        `json:"duration_minutes" gorm:"not null;default:0"` // 0 means untimed
	ShuffleQuestions bool       `json:"shuffle_questions" gorm:"not null;default:false"`
	ShuffleAnswers   bool       `json:"shuffle_answers" gorm:"not null;default:false"`
	AccessMode       AccessMode `json:"access_mode" gorm:"not null;default:private;size:16"`
	AttemptsLimit    int        `json:"attempts_limit" gorm:"not null;default:0"` // 0 means unlimited
	IsPublished      bool       `json:"is_published" gorm:"not null;default:false;index"`
	OpensAt          *time.Time `json:"opens_at"`
	ClosesAt         *time.Time `json:"closes_at"`

	// Reward ceilings granted for a perfect first attempt
	MaxExperience int `json:"max_experience" gorm:"not null;default:0"`
	MaxCoins      int `json:"max_coins" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []Question `json:"questions" gorm:"foreignKey:TestID"`
}

func (TestDefinition) TableName() string {
	return "tests"
}

// MaxScore is the sum of the points of every question of the current definition.
func (t *TestDefinition) MaxScore() float64 {
	total := 0.0
	for i := range t.Questions {
		total += t.Questions[i].Points
	}
	return total
}

// IsOpenAt reports whether the test accepts new sessions at the given instant.
func (t *TestDefinition) IsOpenAt(now time.Time) bool {
	if !t.IsPublished {
		return false
	}
	if t.OpensAt != nil && now.Before(*t.OpensAt) {
		return false
	}
	if t.ClosesAt != nil && !now.Before(*t.ClosesAt) {
		return false
	}
	return true
}

// QuestionByID returns the question with the given id or nil.
func (t *TestDefinition) QuestionByID(id uint) *Question {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i]
		}
	}
	return nil
}

// QuestionIDs returns question ids in definition order.
func (t *TestDefinition) QuestionIDs() []uint {
	ids := make([]uint, len(t.Questions))
	for i := range t.Questions {
		ids[i] = t.Questions[i].ID
	}
	return ids
}

// GroupTestAccess opens a test to every member of a group.
type GroupTestAccess struct {
	TestID  uint `json:"test_id" gorm:"primaryKey"`
	GroupID uint `json:"group_id" gorm:"primaryKey"`
}

func (GroupTestAccess) TableName() string {
	return "test_group_access"
}

type GroupMember struct {
	GroupID   uint   `json:"group_id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"primaryKey;size:255"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
