package models

import (
	"time"
)

// StudentProfile holds the reward state a student accumulates across tests.
type StudentProfile struct {
	StudentID  string  `json:"student_id" gorm:"primaryKey;size:255"`
	Level      int     `json:"level" gorm:"not null;default:1"`
	Experience float64 `json:"experience" gorm:"not null;default:0"`
	Coins      int     `json:"coins" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

// NewStudentProfile returns the profile of a student who has never been rewarded.
func NewStudentProfile(studentID string) *StudentProfile {
	return &StudentProfile{StudentID: studentID, Level: 1}
}
