package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/validator"
)

type answerRecorder struct {
	repo      repositories.Repository
	sessions  SessionService
	logger    *slog.Logger
	validator *validator.Validator
	now       Clock
}

func NewAnswerRecorder(repo repositories.Repository, sessions SessionService, logger *slog.Logger, validator *validator.Validator) AnswerRecorder {
	return newAnswerRecorder(repo, sessions, logger, validator, time.Now)
}

func newAnswerRecorder(repo repositories.Repository, sessions SessionService, logger *slog.Logger, validator *validator.Validator, now Clock) *answerRecorder {
	return &answerRecorder{
		repo:      repo,
		sessions:  sessions,
		logger:    logger,
		validator: validator,
		now:       now,
	}
}

// answerChange is the single write a submission resolves to
type answerChange struct {
	slotKey string
	answer  *models.Answer // nil deletes the slot
}

// SubmitAnswer records or resets one answer unit of an active session. The session row
// stays locked for the write so completion cannot interleave with it.
func (r *answerRecorder) SubmitAnswer(ctx context.Context, sessionID uint, req *SubmitAnswerRequest, studentID string) error {
	if err := r.validator.Validate(req); err != nil {
		return err
	}

	expired := false

	err := r.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		session, err := tx.Session().GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		if session.StudentID != studentID {
			return NewPermissionError(studentID, sessionID, "session", "answer", "not owned by student")
		}
		if session.IsCompleted {
			return ErrSessionCompleted
		}
		if session.IsExpiredAt(r.now()) {
			expired = true
			return nil
		}

		def, err := tx.Test().LoadForScoring(ctx, session.TestID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrTestNotFound
			}
			return fmt.Errorf("failed to load test: %w", err)
		}

		q := def.QuestionByID(req.QuestionID)
		if q == nil {
			return ErrQuestionNotInSession
		}

		change, err := resolveAnswer(q, sessionID, req)
		if err != nil {
			return err
		}

		if change.answer == nil {
			return tx.Answer().DeleteSlot(ctx, sessionID, q.ID, change.slotKey)
		}
		return tx.Answer().Upsert(ctx, change.answer)
	})
	if err != nil {
		return err
	}

	if expired {
		r.logger.Info("Answer rejected, session time limit passed",
			"session_id", sessionID,
			"student_id", studentID)
		if err := r.sessions.Finalize(ctx, sessionID); err != nil {
			r.logger.Error("Failed to finalize expired session",
				"session_id", sessionID,
				"error", err)
		}
		return ErrSessionExpired
	}

	r.logger.Debug("Answer recorded",
		"session_id", sessionID,
		"question_id", req.QuestionID,
		"reset", req.Reset)

	return nil
}

// resolveAnswer checks req against the question type and returns the slot write it implies
func resolveAnswer(q *models.Question, sessionID uint, req *SubmitAnswerRequest) (*answerChange, error) {
	body, err := q.Body()
	if err != nil {
		return nil, fmt.Errorf("failed to interpret question %d: %w", q.ID, err)
	}

	single := func(a *models.Answer) *answerChange {
		if req.Reset {
			return &answerChange{slotKey: models.SlotSingle}
		}
		a.SessionID = sessionID
		a.QuestionID = q.ID
		a.SlotKey = models.SlotSingle
		return &answerChange{slotKey: models.SlotSingle, answer: a}
	}

	switch b := body.(type) {
	case models.YesNoBody:
		if req.OptionID != nil || req.RowID != nil || req.NumberValue != nil {
			return nil, ErrUnsupportedAnswerShape
		}
		return single(&models.Answer{BoolValue: req.BoolValue}), nil

	case models.SliderBody:
		if req.OptionID != nil || req.RowID != nil || req.BoolValue != nil {
			return nil, ErrUnsupportedAnswerShape
		}
		if !req.Reset {
			v := *req.NumberValue
			if v < b.Min || v > b.Max {
				return nil, NewValidationError("number_value", fmt.Sprintf("must be between %g and %g", b.Min, b.Max), v)
			}
		}
		return single(&models.Answer{NumberValue: req.NumberValue}), nil

	case models.SingleChoiceBody:
		if req.RowID != nil || req.NumberValue != nil || req.BoolValue != nil {
			return nil, ErrUnsupportedAnswerShape
		}
		if !req.Reset && !q.HasOption(*req.OptionID) {
			return nil, NewValidationError("option_id", "is not an option of the question", *req.OptionID)
		}
		return single(&models.Answer{SelectedOptionID: req.OptionID}), nil

	case models.MultipleChoiceBody:
		if req.RowID != nil || req.NumberValue != nil || req.BoolValue != nil {
			return nil, ErrUnsupportedAnswerShape
		}
		if req.OptionID == nil {
			return nil, NewValidationError("option_id", "is required", nil)
		}
		if !q.HasOption(*req.OptionID) {
			return nil, NewValidationError("option_id", "is not an option of the question", *req.OptionID)
		}
		slot := models.OptionSlot(*req.OptionID)
		if req.Reset {
			return &answerChange{slotKey: slot}, nil
		}
		return &answerChange{slotKey: slot, answer: &models.Answer{
			SessionID:        sessionID,
			QuestionID:       q.ID,
			SlotKey:          slot,
			SelectedOptionID: req.OptionID,
		}}, nil

	case models.TableSingleChoiceBody, models.OrderingBody:
		if req.OptionID != nil || req.NumberValue != nil || req.BoolValue != nil {
			return nil, ErrUnsupportedAnswerShape
		}
		if req.RowID == nil {
			return nil, NewValidationError("row_id", "is required", nil)
		}
		if !q.HasRow(*req.RowID) {
			return nil, NewValidationError("row_id", "is not a row of the question", *req.RowID)
		}
		slot := models.RowSlot(*req.RowID)
		if req.Reset {
			return &answerChange{slotKey: slot}, nil
		}
		if !q.HasColumn(*req.ColumnID) {
			return nil, NewValidationError("column_id", "is not a column of the question", *req.ColumnID)
		}
		return &answerChange{slotKey: slot, answer: &models.Answer{
			SessionID:        sessionID,
			QuestionID:       q.ID,
			SlotKey:          slot,
			SelectedRowID:    req.RowID,
			SelectedColumnID: req.ColumnID,
		}}, nil

	default:
		return nil, ErrUnsupportedAnswerShape
	}
}
