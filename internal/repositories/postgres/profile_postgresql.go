package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/cache"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
)

type ProfilePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProfilePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ProfileRepository {
	return &ProfilePostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// Get returns the profile through the read cache. A student without a profile row
// gets a fresh level 1 profile, which is not persisted.
func (p *ProfilePostgreSQL) Get(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile

	err := p.cacheManager.Profile.CacheOrExecute(ctx, cache.ProfileKey(studentID), &profile, cache.ProfileCacheConfig.TTL, func() (interface{}, error) {
		var dbProfile models.StudentProfile
		err := p.db.WithContext(ctx).Where("student_id = ?", studentID).Limit(1).Find(&dbProfile).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		if dbProfile.StudentID == "" {
			return models.NewStudentProfile(studentID), nil
		}
		return &dbProfile, nil
	})
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// GetForUpdate creates the row if missing, then locks it.
func (p *ProfilePostgreSQL) GetForUpdate(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	db := p.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.NewStudentProfile(studentID)).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	var profile models.StudentProfile
	if err := forUpdate(db).Where("student_id = ?", studentID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to lock profile: %w", translateError(err))
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) Save(ctx context.Context, profile *models.StudentProfile) error {
	if err := p.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (p *ProfilePostgreSQL) InvalidateCache(ctx context.Context, studentIDs ...string) {
	cache.InvalidateProfiles(ctx, p.cacheManager, studentIDs...)
}
