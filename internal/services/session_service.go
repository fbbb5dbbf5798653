package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/events"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/validator"
)

type sessionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	now       Clock
}

func NewSessionService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) SessionService {
	return newSessionService(repo, publisher, logger, validator, time.Now)
}

func newSessionService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, now Clock) *sessionService {
	return &sessionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       now,
	}
}

// completion describes a finalize that won the completion transition
type completion struct {
	session *models.Session
	scored  bool
	score   SessionScore
	delta   RewardDelta
}

// ===== CORE SESSION OPERATIONS =====

func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest, studentID string) (*SessionResponse, error) {
	s.logger.Info("Starting test session",
		"test_id", req.TestID,
		"student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.ensureNoActiveSession(ctx, studentID); err != nil {
		return nil, err
	}

	now := s.now()

	def, err := s.repo.Test().LoadForScoring(ctx, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to load test: %w", err)
	}
	if !def.IsOpenAt(now) {
		return nil, ErrTestNotFound
	}

	if err := s.checkAccess(ctx, def, studentID); err != nil {
		return nil, err
	}

	if def.AttemptsLimit > 0 {
		used, err := s.repo.Session().CountByStudentAndTest(ctx, studentID, def.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count attempts: %w", err)
		}
		if used >= def.AttemptsLimit {
			return nil, ErrAttemptsLimitReached
		}
	}

	session := &models.Session{
		TestID:          def.ID,
		StudentID:       studentID,
		RandomSeed:      newSeed(),
		StartedAt:       now,
		ActiveStudentID: &studentID,
	}
	if def.DurationMinutes > 0 {
		autoFinishAt := now.Add(time.Duration(def.DurationMinutes) * time.Minute)
		session.AutoFinishAt = &autoFinishAt
	}

	if err := s.repo.Session().Create(ctx, session); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrActiveSessionExists
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Test session started",
		"session_id", session.ID,
		"test_id", def.ID,
		"student_id", studentID)

	s.publish(ctx, events.SessionStarted, sessionEventData(session, def.MaxScore(), false))

	return s.toResponse(session, def.MaxScore()), nil
}

// ensureNoActiveSession fails with a conflict while the student holds an open session.
// A session whose time already ran out is finalized here instead of waiting for the sweep.
func (s *sessionService) ensureNoActiveSession(ctx context.Context, studentID string) error {
	active, err := s.repo.Session().GetActiveByStudent(ctx, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to check active session: %w", err)
	}

	if !active.IsExpiredAt(s.now()) {
		return ErrActiveSessionExists
	}

	if err := s.Finalize(ctx, active.ID); err != nil {
		return fmt.Errorf("failed to finalize expired session: %w", err)
	}
	return nil
}

func (s *sessionService) checkAccess(ctx context.Context, def *models.TestDefinition, studentID string) error {
	switch def.AccessMode {
	case models.AccessPublic:
		return nil
	case models.AccessGroup:
		ok, err := s.repo.Membership().IsStudentInGroupOpenedToTest(ctx, def.ID, studentID)
		if err != nil {
			return fmt.Errorf("failed to check group access: %w", err)
		}
		if !ok {
			return ErrTestNotFound
		}
		return nil
	default:
		if def.AuthorID != studentID {
			return ErrTestNotFound
		}
		return nil
	}
}

func (s *sessionService) SubmitSession(ctx context.Context, sessionID uint, studentID string) (*SessionResponse, error) {
	s.logger.Info("Submitting test session",
		"session_id", sessionID,
		"student_id", studentID)

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.StudentID != studentID {
		return nil, NewPermissionError(studentID, sessionID, "session", "submit", "not owned by student")
	}

	if err := s.Finalize(ctx, sessionID); err != nil {
		return nil, err
	}

	session, err = s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	maxScore := 0.0
	if def, err := s.repo.Test().LoadForScoring(ctx, session.TestID); err == nil {
		maxScore = def.MaxScore()
	}

	return s.toResponse(session, maxScore), nil
}

// Finalize completes the session exactly once. Callers that lose the completion race,
// or find the session already completed, return nil without scoring again.
func (s *sessionService) Finalize(ctx context.Context, sessionID uint) error {
	var done *completion

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		done, err = s.finalizeInTx(ctx, tx, sessionID)
		return err
	})
	if err != nil {
		return err
	}

	if done == nil {
		s.logger.Debug("Session already completed", "session_id", sessionID)
		return nil
	}

	if !done.delta.IsZero() {
		s.repo.Profile().InvalidateCache(ctx, done.session.StudentID)
	}

	s.logger.Info("Test session completed",
		"session_id", sessionID,
		"student_id", done.session.StudentID,
		"scored", done.scored,
		"score", done.score.Total,
		"reward_experience", done.delta.Experience,
		"reward_coins", done.delta.Coins)

	data := sessionEventData(done.session, done.score.MaxScore, done.scored)
	s.publish(ctx, events.SessionCompleted, data)

	return nil
}

func (s *sessionService) finalizeInTx(ctx context.Context, tx repositories.Repository, sessionID uint) (*completion, error) {
	session, err := tx.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsCompleted {
		return nil, nil
	}

	finishedAt := s.now()
	if session.IsExpiredAt(finishedAt) {
		finishedAt = *session.AutoFinishAt
	}

	won, err := tx.Session().MarkCompleted(ctx, sessionID, finishedAt)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, nil
	}

	session.IsCompleted = true
	session.FinishedAt = &finishedAt
	session.ActiveStudentID = nil

	def, err := tx.Test().LoadForScoring(ctx, session.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Test definition missing, session completed without scoring",
				"session_id", sessionID,
				"test_id", session.TestID)
			return &completion{session: session}, nil
		}
		return nil, fmt.Errorf("failed to load test: %w", err)
	}

	answers, err := tx.Answer().GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	score := ScoreSession(def, answers)
	s.logSkipped(sessionID, score)

	priorBest, _, err := tx.Session().BestScore(ctx, session.StudentID, session.TestID, sessionID)
	if err != nil {
		return nil, err
	}

	delta := ComputeReward(score.Total, priorBest, score.MaxScore, def.MaxExperience, def.MaxCoins)
	if err := applyToProfile(ctx, tx, session.StudentID, delta); err != nil {
		return nil, err
	}

	result := repositories.SessionResult{
		Score:            score.Total,
		RewardExperience: delta.Experience,
		RewardCoins:      delta.Coins,
	}
	if err := tx.Session().UpdateResult(ctx, sessionID, result); err != nil {
		return nil, fmt.Errorf("failed to store session result: %w", err)
	}

	session.Score = result.Score
	session.RewardExperience = result.RewardExperience
	session.RewardCoins = result.RewardCoins

	return &completion{session: session, scored: true, score: score, delta: delta}, nil
}

// applyToProfile applies delta to the locked profile row. Zero deltas touch nothing.
func applyToProfile(ctx context.Context, tx repositories.Repository, studentID string, deltas ...RewardDelta) error {
	pending := deltas[:0:0]
	for _, d := range deltas {
		if !d.IsZero() {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	profile, err := tx.Profile().GetForUpdate(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to lock profile: %w", err)
	}

	for _, d := range pending {
		ApplyReward(profile, d)
	}

	if err := tx.Profile().Save(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// ===== PRESENTATION =====

func (s *sessionService) GetPresentationForStudent(ctx context.Context, sessionID uint, studentID string) (*models.SessionView, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.StudentID != studentID {
		return nil, NewPermissionError(studentID, sessionID, "session", "view", "not owned by student")
	}

	def, answers, err := s.loadForView(ctx, session)
	if err != nil {
		return nil, err
	}

	return buildSessionView(session, def, answers, nil), nil
}

func (s *sessionService) GetPresentationForTeacher(ctx context.Context, sessionID uint, teacherID string) (*models.SessionView, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	def, answers, err := s.loadForView(ctx, session)
	if err != nil {
		return nil, err
	}

	if def.AuthorID != teacherID {
		return nil, NewPermissionError(teacherID, sessionID, "session", "review", "not the test author")
	}

	score := ScoreSession(def, answers)
	return buildSessionView(session, def, answers, &score), nil
}

func (s *sessionService) loadForView(ctx context.Context, session *models.Session) (*models.TestDefinition, []models.Answer, error) {
	def, err := s.repo.Test().LoadForScoring(ctx, session.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrTestNotFound
		}
		return nil, nil, fmt.Errorf("failed to load test: %w", err)
	}

	answers, err := s.repo.Answer().GetBySession(ctx, session.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get answers: %w", err)
	}

	return def, answers, nil
}

// ===== TEACHER OPERATIONS =====

// DeleteSession removes a session, reversing the settlement it granted.
func (s *sessionService) DeleteSession(ctx context.Context, sessionID uint, teacherID string) error {
	s.logger.Info("Deleting test session",
		"session_id", sessionID,
		"teacher_id", teacherID)

	var deleted *models.Session

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		session, err := tx.Session().GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		if err := s.requireAuthor(ctx, tx, session.TestID, teacherID, sessionID, "delete"); err != nil {
			return err
		}

		granted := RewardDelta{Experience: session.RewardExperience, Coins: session.RewardCoins}
		if err := applyToProfile(ctx, tx, session.StudentID, granted.Negate()); err != nil {
			return err
		}

		if err := tx.Answer().DeleteBySession(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to delete answers: %w", err)
		}
		if err := tx.Session().Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}

		deleted = session
		return nil
	})
	if err != nil {
		return err
	}

	s.repo.Profile().InvalidateCache(ctx, deleted.StudentID)
	s.publish(ctx, events.SessionDeleted, sessionEventData(deleted, 0, deleted.IsCompleted))

	s.logger.Info("Test session deleted",
		"session_id", sessionID,
		"reversed_experience", deleted.RewardExperience,
		"reversed_coins", deleted.RewardCoins)

	return nil
}

// RescoreTest recomputes every completed session of a test against the current
// definition, replacing the settlements they granted.
func (s *sessionService) RescoreTest(ctx context.Context, testID uint, teacherID string) (*RescoreResult, error) {
	s.logger.Info("Rescoring test", "test_id", testID, "teacher_id", teacherID)

	var (
		result   *RescoreResult
		changed  []*models.Session
		maxScore float64
	)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		def, err := s.authorizedDefinition(ctx, tx, testID, teacherID)
		if err != nil {
			return err
		}
		maxScore = def.MaxScore()

		result, changed, err = s.rescoreInTx(ctx, tx, def)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterRescore(ctx, changed, maxScore)
	return result, nil
}

// ResetQuestionAnswers drops every recorded answer of a question whose type was
// reinterpreted, then rescores the completed sessions of its test.
func (s *sessionService) ResetQuestionAnswers(ctx context.Context, questionID uint, teacherID string) (*ResetAnswersResult, error) {
	s.logger.Info("Resetting question answers", "question_id", questionID, "teacher_id", teacherID)

	testID, err := s.repo.Test().GetTestIDByQuestion(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	result := &ResetAnswersResult{QuestionID: questionID}
	var (
		changed  []*models.Session
		maxScore float64
	)

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		def, err := s.authorizedDefinition(ctx, tx, testID, teacherID)
		if err != nil {
			return err
		}
		maxScore = def.MaxScore()

		result.AnswersDeleted, err = tx.Answer().DeleteByQuestion(ctx, questionID)
		if err != nil {
			return err
		}

		rescored, sessions, err := s.rescoreInTx(ctx, tx, def)
		if err != nil {
			return err
		}
		result.RescoreResult = *rescored
		changed = sessions
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterRescore(ctx, changed, maxScore)
	return result, nil
}

// rescoreInTx replays the settlement history of every student in completion order.
// Each student's previous grants are reversed newest first, then the recomputed
// grants are applied oldest first, each relative to the best score before it.
func (s *sessionService) rescoreInTx(ctx context.Context, tx repositories.Repository, def *models.TestDefinition) (*RescoreResult, []*models.Session, error) {
	sessions, err := tx.Session().ListCompletedByTest(ctx, def.ID)
	if err != nil {
		return nil, nil, err
	}

	byStudent := make(map[string][]*models.Session)
	for _, session := range sessions {
		byStudent[session.StudentID] = append(byStudent[session.StudentID], session)
	}

	students := make([]string, 0, len(byStudent))
	for id := range byStudent {
		students = append(students, id)
	}
	// stable lock order across concurrent rescores
	sort.Strings(students)

	result := &RescoreResult{TestID: def.ID}
	var changed []*models.Session

	for _, studentID := range students {
		history := byStudent[studentID]

		var deltas []RewardDelta
		for i := len(history) - 1; i >= 0; i-- {
			old := RewardDelta{Experience: history[i].RewardExperience, Coins: history[i].RewardCoins}
			deltas = append(deltas, old.Negate())
		}

		best := 0.0
		studentChanged := false
		for _, session := range history {
			answers, err := tx.Answer().GetBySession(ctx, session.ID)
			if err != nil {
				return nil, nil, err
			}

			score := ScoreSession(def, answers)
			s.logSkipped(session.ID, score)

			delta := ComputeReward(score.Total, best, score.MaxScore, def.MaxExperience, def.MaxCoins)
			best = max(best, score.Total)
			deltas = append(deltas, delta)

			result.SessionsScored++
			if score.Total == session.Score && delta.Experience == session.RewardExperience && delta.Coins == session.RewardCoins {
				continue
			}

			res := repositories.SessionResult{Score: score.Total, RewardExperience: delta.Experience, RewardCoins: delta.Coins}
			if err := tx.Session().UpdateResult(ctx, session.ID, res); err != nil {
				return nil, nil, fmt.Errorf("failed to store rescored result: %w", err)
			}

			session.Score = res.Score
			session.RewardExperience = res.RewardExperience
			session.RewardCoins = res.RewardCoins
			changed = append(changed, session)
			result.SessionsChanged++
			studentChanged = true
		}

		if !studentChanged {
			continue
		}
		if err := applyToProfile(ctx, tx, studentID, deltas...); err != nil {
			return nil, nil, err
		}
	}

	return result, changed, nil
}

func (s *sessionService) afterRescore(ctx context.Context, changed []*models.Session, maxScore float64) {
	students := make([]string, 0, len(changed))
	for _, session := range changed {
		students = append(students, session.StudentID)
		s.publish(ctx, events.SessionRescored, sessionEventData(session, maxScore, true))
	}
	if len(students) > 0 {
		s.repo.Profile().InvalidateCache(ctx, students...)
	}
}

func (s *sessionService) GetProfile(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	profile, err := s.repo.Profile().Get(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// ===== HELPERS =====

func (s *sessionService) getSession(ctx context.Context, sessionID uint) (*models.Session, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (s *sessionService) authorizedDefinition(ctx context.Context, repo repositories.Repository, testID uint, teacherID string) (*models.TestDefinition, error) {
	def, err := repo.Test().LoadForScoring(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to load test: %w", err)
	}
	if def.AuthorID != teacherID {
		return nil, NewPermissionError(teacherID, testID, "test", "rescore", "not the test author")
	}
	return def, nil
}

func (s *sessionService) requireAuthor(ctx context.Context, repo repositories.Repository, testID uint, teacherID string, sessionID uint, action string) error {
	def, err := repo.Test().LoadForScoring(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to load test: %w", err)
	}
	if def.AuthorID != teacherID {
		return NewPermissionError(teacherID, sessionID, "session", action, "not the test author")
	}
	return nil
}

func (s *sessionService) logSkipped(sessionID uint, score SessionScore) {
	for questionID, err := range score.Skipped {
		s.logger.Warn("Question skipped during scoring",
			"session_id", sessionID,
			"question_id", questionID,
			"error", err)
	}
}

func (s *sessionService) publish(ctx context.Context, eventType events.EventType, data events.SessionEventData) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", eventType,
			"session_id", data.SessionID,
			"error", err)
	}
}

func (s *sessionService) toResponse(session *models.Session, maxScore float64) *SessionResponse {
	resp := &SessionResponse{Session: session, MaxScore: maxScore}
	if !session.IsCompleted && session.AutoFinishAt != nil {
		remaining := int64(max(session.AutoFinishAt.Sub(s.now()), 0) / time.Second)
		resp.TimeRemainingSeconds = &remaining
	}
	return resp
}

func sessionEventData(session *models.Session, maxScore float64, scored bool) events.SessionEventData {
	return events.SessionEventData{
		SessionID:        session.ID,
		TestID:           session.TestID,
		StudentID:        session.StudentID,
		StartedAt:        session.StartedAt,
		AutoFinishAt:     session.AutoFinishAt,
		FinishedAt:       session.FinishedAt,
		Score:            session.Score,
		MaxScore:         maxScore,
		Scored:           scored,
		RewardExperience: session.RewardExperience,
		RewardCoins:      session.RewardCoins,
	}
}

