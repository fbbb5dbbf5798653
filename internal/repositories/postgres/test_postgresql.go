package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
)

// TestPostgreSQL reads the live test definitions. Definitions are authored elsewhere,
// so nothing here is cached.
type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestPostgreSQL{db: db}
}

func (t *TestPostgreSQL) LoadForScoring(ctx context.Context, testID uint) (*models.TestDefinition, error) {
	var test models.TestDefinition
	if err := t.db.WithContext(ctx).
		Preload("Questions", orderedBy).
		Preload("Questions.Options", orderedBy).
		Preload("Questions.Rows", orderedBy).
		Preload("Questions.Columns", orderedBy).
		First(&test, testID).Error; err != nil {
		return nil, fmt.Errorf("failed to load test: %w", translateError(err))
	}
	return &test, nil
}

func (t *TestPostgreSQL) GetTestIDByQuestion(ctx context.Context, questionID uint) (uint, error) {
	var question models.Question
	if err := t.db.WithContext(ctx).
		Select("id", "test_id").
		First(&question, questionID).Error; err != nil {
		return 0, fmt.Errorf("failed to get question: %w", translateError(err))
	}
	return question.TestID, nil
}

type MembershipPostgreSQL struct {
	db *gorm.DB
}

func NewMembershipPostgreSQL(db *gorm.DB) repositories.MembershipRepository {
	return &MembershipPostgreSQL{db: db}
}

// IsStudentInGroupOpenedToTest reports whether any group the student belongs to
// has been granted access to the test.
func (m *MembershipPostgreSQL) IsStudentInGroupOpenedToTest(ctx context.Context, testID uint, studentID string) (bool, error) {
	var count int64
	if err := m.db.WithContext(ctx).
		Model(&models.GroupTestAccess{}).
		Joins("JOIN group_members ON group_members.group_id = test_group_access.group_id").
		Where("test_group_access.test_id = ? AND group_members.student_id = ?", testID, studentID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check group access: %w", err)
	}
	return count > 0, nil
}
