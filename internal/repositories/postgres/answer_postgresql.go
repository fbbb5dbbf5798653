package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (ar *AnswerPostgreSQL) GetBySession(ctx context.Context, sessionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := ar.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_id ASC, slot_key ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get answers by session: %w", err)
	}
	return answers, nil
}

// Upsert writes the slot row, replacing every value column on conflict so a
// resubmission never leaves stale values behind.
func (ar *AnswerPostgreSQL) Upsert(ctx context.Context, answer *models.Answer) error {
	err := ar.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "question_id"}, {Name: "slot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_option_id",
				"selected_row_id",
				"selected_column_id",
				"number_value",
				"bool_value",
				"updated_at",
			}),
		}).
		Create(answer).Error
	if err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

func (ar *AnswerPostgreSQL) DeleteSlot(ctx context.Context, sessionID, questionID uint, slotKey string) error {
	return ar.db.WithContext(ctx).
		Where("session_id = ? AND question_id = ? AND slot_key = ?", sessionID, questionID, slotKey).
		Delete(&models.Answer{}).Error
}

func (ar *AnswerPostgreSQL) DeleteBySession(ctx context.Context, sessionID uint) error {
	return ar.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.Answer{}).Error
}

func (ar *AnswerPostgreSQL) DeleteByQuestion(ctx context.Context, questionID uint) (int64, error) {
	result := ar.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Delete(&models.Answer{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete answers by question: %w", result.Error)
	}
	return result.RowsAffected, nil
}
