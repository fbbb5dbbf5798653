package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
)

const resultsSheet = "Results"

var resultsHeaders = []string{
	"Session ID", "Student ID", "Started At", "Finished At",
	"Score", "Max Score", "Percentage", "Experience", "Coins",
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportTestResults renders every completed session of a test into an xlsx workbook
func (s *exportService) ExportTestResults(ctx context.Context, testID uint, teacherID string) ([]byte, error) {
	def, err := s.repo.Test().LoadForScoring(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to load test: %w", err)
	}
	if def.AuthorID != teacherID {
		return nil, NewPermissionError(teacherID, testID, "test", "export", "not the test author")
	}

	sessions, err := s.repo.Session().ListCompletedByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	maxScore := def.MaxScore()
	rows := make([]models.SessionResult, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, models.SessionResult{
			SessionID:        session.ID,
			StudentID:        session.StudentID,
			StartedAt:        session.StartedAt,
			FinishedAt:       session.FinishedAt,
			Score:            session.Score,
			MaxScore:         maxScore,
			RewardExperience: session.RewardExperience,
			RewardCoins:      session.RewardCoins,
		})
	}

	data, err := renderResults(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to render results: %w", err)
	}

	s.logger.Info("Test results exported",
		"test_id", testID,
		"teacher_id", teacherID,
		"sessions", len(rows))

	return data, nil
}

func renderResults(rows []models.SessionResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for col, header := range resultsHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(resultsSheet, cell, header); err != nil {
			return nil, err
		}
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(resultsHeaders), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(resultsSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for i, r := range rows {
		finishedAt := ""
		if r.FinishedAt != nil {
			finishedAt = r.FinishedAt.UTC().Format(time.RFC3339)
		}
		percentage := 0.0
		if r.MaxScore > 0 {
			percentage = r.Score / r.MaxScore * 100
		}

		values := []interface{}{
			r.SessionID,
			r.StudentID,
			r.StartedAt.UTC().Format(time.RFC3339),
			finishedAt,
			r.Score,
			r.MaxScore,
			percentage,
			r.RewardExperience,
			r.RewardCoins,
		}

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
