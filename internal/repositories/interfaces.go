package repositories

import (
	"context"
	"time"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
)

// TestRepository reads live test definitions
type TestRepository interface {
	// LoadForScoring returns the definition with questions, options, rows and columns,
	// each ordered by their authored order.
	LoadForScoring(ctx context.Context, testID uint) (*models.TestDefinition, error)
	GetTestIDByQuestion(ctx context.Context, questionID uint) (uint, error)
}

// MembershipRepository answers group access questions
type MembershipRepository interface {
	IsStudentInGroupOpenedToTest(ctx context.Context, testID uint, studentID string) (bool, error)
}

// SessionRepository interface for session persistence
type SessionRepository interface {
	// Create persists a new active session. Returns ErrDuplicate when the student
	// already holds an active session.
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uint) (*models.Session, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Session, error)
	GetActiveByStudent(ctx context.Context, studentID string) (*models.Session, error)
	Delete(ctx context.Context, id uint) error

	// MarkCompleted flips is_completed false -> true. Returns false when another
	// caller already completed the session.
	MarkCompleted(ctx context.Context, id uint, finishedAt time.Time) (bool, error)
	UpdateResult(ctx context.Context, id uint, result SessionResult) error

	// Queries
	CountByStudentAndTest(ctx context.Context, studentID string, testID uint) (int, error)
	BestScore(ctx context.Context, studentID string, testID uint, excludeSessionID uint) (float64, bool, error)
	GetExpired(ctx context.Context, now time.Time, limit int) ([]*models.Session, error)
	ListCompletedByTest(ctx context.Context, testID uint) ([]*models.Session, error)
}

// AnswerRepository interface for recorded answers
type AnswerRepository interface {
	GetBySession(ctx context.Context, sessionID uint) ([]models.Answer, error)
	// Upsert inserts or replaces the row keyed by (session, question, slot).
	Upsert(ctx context.Context, answer *models.Answer) error
	DeleteSlot(ctx context.Context, sessionID, questionID uint, slotKey string) error
	DeleteBySession(ctx context.Context, sessionID uint) error
	DeleteByQuestion(ctx context.Context, questionID uint) (int64, error)
}

// ProfileRepository interface for student reward state
type ProfileRepository interface {
	Get(ctx context.Context, studentID string) (*models.StudentProfile, error)
	// GetForUpdate returns the profile locked for the transaction, creating it if absent.
	GetForUpdate(ctx context.Context, studentID string) (*models.StudentProfile, error)
	Save(ctx context.Context, profile *models.StudentProfile) error
	// InvalidateCache drops cached reads; call after the saving transaction commits.
	InvalidateCache(ctx context.Context, studentIDs ...string)
}

// ===== SHARED HELPER STRUCTS =====

type SessionResult struct {
	Score            float64 `json:"score"`
	RewardExperience float64 `json:"reward_experience"`
	RewardCoins      int     `json:"reward_coins"`
}
