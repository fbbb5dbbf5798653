package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

// ===== BASIC CRUD OPERATIONS =====

func (s *SessionPostgreSQL) Create(ctx context.Context, session *models.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", translateError(err))
	}
	return nil
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get session: %w", translateError(err))
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetByIDForUpdate(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := forUpdate(s.db.WithContext(ctx)).First(&session, id).Error; err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", translateError(err))
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetActiveByStudent(ctx context.Context, studentID string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND is_completed = ?", studentID, false).
		Order("started_at DESC").
		First(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", translateError(err))
	}
	return &session, nil
}

func (s *SessionPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Session{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete session %d: %w", id, repositories.ErrNotFound)
	}
	return nil
}

// ===== COMPLETION =====

// MarkCompleted is a compare-and-set on is_completed; exactly one caller wins.
// Under READ COMMITTED a concurrent UPDATE blocks on the row lock and re-evaluates
// the WHERE clause after the winner commits, so the loser affects zero rows.
func (s *SessionPostgreSQL) MarkCompleted(ctx context.Context, id uint, finishedAt time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]interface{}{
			"is_completed":      true,
			"finished_at":       finishedAt,
			"active_student_id": nil,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete session: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *SessionPostgreSQL) UpdateResult(ctx context.Context, id uint, res repositories.SessionResult) error {
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":             res.Score,
			"reward_experience": res.RewardExperience,
			"reward_coins":      res.RewardCoins,
		}).Error
}

// ===== QUERY OPERATIONS =====

func (s *SessionPostgreSQL) CountByStudentAndTest(ctx context.Context, studentID string, testID uint) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("student_id = ? AND test_id = ?", studentID, testID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return int(count), nil
}

// BestScore returns the highest score among the student's other completed sessions
// of the test. The bool is false when there is none.
func (s *SessionPostgreSQL) BestScore(ctx context.Context, studentID string, testID uint, excludeSessionID uint) (float64, bool, error) {
	var best struct {
		Score *float64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Select("MAX(score) AS score").
		Where("student_id = ? AND test_id = ? AND is_completed = ? AND id <> ?", studentID, testID, true, excludeSessionID).
		Scan(&best).Error; err != nil {
		return 0, false, fmt.Errorf("failed to get best score: %w", err)
	}
	if best.Score == nil {
		return 0, false, nil
	}
	return *best.Score, true, nil
}

func (s *SessionPostgreSQL) GetExpired(ctx context.Context, now time.Time, limit int) ([]*models.Session, error) {
	var sessions []*models.Session
	query := s.db.WithContext(ctx).
		Where("is_completed = ? AND auto_finish_at IS NOT NULL AND auto_finish_at <= ?", false, now).
		Order("auto_finish_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to get expired sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionPostgreSQL) ListCompletedByTest(ctx context.Context, testID uint) ([]*models.Session, error) {
	var sessions []*models.Session
	if err := s.db.WithContext(ctx).
		Where("test_id = ? AND is_completed = ?", testID, true).
		Order("finished_at ASC, id ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list completed sessions: %w", err)
	}
	return sessions, nil
}
