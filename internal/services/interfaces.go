package services

import (
	"context"
	"time"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type StartSessionRequest = validator.StartSessionRequest
type SubmitAnswerRequest = validator.SubmitAnswerRequest

type SessionResponse struct {
	*models.Session
	MaxScore             float64 `json:"max_score"`
	TimeRemainingSeconds *int64  `json:"time_remaining_seconds,omitempty"`
}

type RescoreResult struct {
	TestID          uint `json:"test_id"`
	SessionsScored  int  `json:"sessions_scored"`
	SessionsChanged int  `json:"sessions_changed"`
}

type ResetAnswersResult struct {
	QuestionID     uint  `json:"question_id"`
	AnswersDeleted int64 `json:"answers_deleted"`
	RescoreResult
}

// ===== SERVICE INTERFACES =====

// SessionService drives the session state machine from start to completion
type SessionService interface {
	// Student operations
	Start(ctx context.Context, req *StartSessionRequest, studentID string) (*SessionResponse, error)
	SubmitSession(ctx context.Context, sessionID uint, studentID string) (*SessionResponse, error)
	GetPresentationForStudent(ctx context.Context, sessionID uint, studentID string) (*models.SessionView, error)
	GetProfile(ctx context.Context, studentID string) (*models.StudentProfile, error)

	// Completion; safe to call concurrently and repeatedly
	Finalize(ctx context.Context, sessionID uint) error

	// Teacher operations
	GetPresentationForTeacher(ctx context.Context, sessionID uint, teacherID string) (*models.SessionView, error)
	DeleteSession(ctx context.Context, sessionID uint, teacherID string) error
	RescoreTest(ctx context.Context, testID uint, teacherID string) (*RescoreResult, error)
	ResetQuestionAnswers(ctx context.Context, questionID uint, teacherID string) (*ResetAnswersResult, error)
}

// AnswerRecorder records answers of active sessions
type AnswerRecorder interface {
	SubmitAnswer(ctx context.Context, sessionID uint, req *SubmitAnswerRequest, studentID string) error
}

// ExportService renders completed session results for teachers
type ExportService interface {
	ExportTestResults(ctx context.Context, testID uint, teacherID string) ([]byte, error)
}

// Clock returns the current instant; replaced in tests
type Clock func() time.Time

// ServiceManager owns service construction and the background expiry sweep
type ServiceManager interface {
	Session() SessionService
	Answers() AnswerRecorder
	Export() ExportService
	Scheduler() *ExpiryScheduler

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
