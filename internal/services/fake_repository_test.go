package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
)

// fakeStore is an in-memory Repository. WithTransaction serializes callers and
// restores the previous state when fn fails.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	tests    map[uint]*models.TestDefinition
	members  map[uint]map[string]bool
	sessions map[uint]models.Session
	answers  map[uint]models.Answer
	profiles map[string]models.StudentProfile

	nextSessionID uint
	nextAnswerID  uint
	invalidated   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tests:    make(map[uint]*models.TestDefinition),
		members:  make(map[uint]map[string]bool),
		sessions: make(map[uint]models.Session),
		answers:  make(map[uint]models.Answer),
		profiles: make(map[string]models.StudentProfile),
	}
}

func (f *fakeStore) Test() repositories.TestRepository             { return fakeTests{f} }
func (f *fakeStore) Membership() repositories.MembershipRepository { return fakeMembership{f} }
func (f *fakeStore) Session() repositories.SessionRepository       { return fakeSessions{f} }
func (f *fakeStore) Answer() repositories.AnswerRepository         { return fakeAnswers{f} }
func (f *fakeStore) Profile() repositories.ProfileRepository       { return fakeProfiles{f} }
func (f *fakeStore) Ping(ctx context.Context) error                { return nil }
func (f *fakeStore) Close() error                                  { return nil }

func (f *fakeStore) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	sessions := make(map[uint]models.Session, len(f.sessions))
	for k, v := range f.sessions {
		sessions[k] = v
	}
	answers := make(map[uint]models.Answer, len(f.answers))
	for k, v := range f.answers {
		answers[k] = v
	}
	profiles := make(map[string]models.StudentProfile, len(f.profiles))
	for k, v := range f.profiles {
		profiles[k] = v
	}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.sessions, f.answers, f.profiles = sessions, answers, profiles
		f.mu.Unlock()
		return err
	}
	return nil
}

// ===== Test fixtures =====

func (f *fakeStore) addTest(def *models.TestDefinition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tests[def.ID] = def
}

func (f *fakeStore) removeTest(id uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tests, id)
}

func (f *fakeStore) addMember(testID uint, studentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[testID] == nil {
		f.members[testID] = make(map[string]bool)
	}
	f.members[testID][studentID] = true
}

func (f *fakeStore) session(id uint) models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id]
}

func (f *fakeStore) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeStore) profile(studentID string) models.StudentProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[studentID]; ok {
		return p
	}
	return *models.NewStudentProfile(studentID)
}

func (f *fakeStore) answersOf(sessionID uint) []models.Answer {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Answer
	for _, a := range f.answers {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ===== Tests and membership =====

type fakeTests struct{ f *fakeStore }

func (r fakeTests) LoadForScoring(ctx context.Context, testID uint) (*models.TestDefinition, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	def, ok := r.f.tests[testID]
	if !ok {
		return nil, errors.Join(repositories.ErrNotFound, fmt.Errorf("test %d", testID))
	}
	return def, nil
}

func (r fakeTests) GetTestIDByQuestion(ctx context.Context, questionID uint) (uint, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, def := range r.f.tests {
		if def.QuestionByID(questionID) != nil {
			return def.ID, nil
		}
	}
	return 0, repositories.ErrNotFound
}

type fakeMembership struct{ f *fakeStore }

func (r fakeMembership) IsStudentInGroupOpenedToTest(ctx context.Context, testID uint, studentID string) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.f.members[testID][studentID], nil
}

// ===== Sessions =====

type fakeSessions struct{ f *fakeStore }

func (r fakeSessions) Create(ctx context.Context, session *models.Session) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if session.ActiveStudentID != nil {
		for _, s := range r.f.sessions {
			if s.ActiveStudentID != nil && *s.ActiveStudentID == *session.ActiveStudentID {
				return repositories.ErrDuplicate
			}
		}
	}
	r.f.nextSessionID++
	session.ID = r.f.nextSessionID
	r.f.sessions[session.ID] = *session
	return nil
}

func (r fakeSessions) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	s, ok := r.f.sessions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (r fakeSessions) GetByIDForUpdate(ctx context.Context, id uint) (*models.Session, error) {
	return r.GetByID(ctx, id)
}

func (r fakeSessions) GetActiveByStudent(ctx context.Context, studentID string) (*models.Session, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, s := range r.f.sessions {
		if s.ActiveStudentID != nil && *s.ActiveStudentID == studentID {
			return &s, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r fakeSessions) Delete(ctx context.Context, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	delete(r.f.sessions, id)
	return nil
}

func (r fakeSessions) MarkCompleted(ctx context.Context, id uint, finishedAt time.Time) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	s, ok := r.f.sessions[id]
	if !ok || s.IsCompleted {
		return false, nil
	}
	s.IsCompleted = true
	s.FinishedAt = &finishedAt
	s.ActiveStudentID = nil
	r.f.sessions[id] = s
	return true, nil
}

func (r fakeSessions) UpdateResult(ctx context.Context, id uint, result repositories.SessionResult) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	s, ok := r.f.sessions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	s.Score = result.Score
	s.RewardExperience = result.RewardExperience
	s.RewardCoins = result.RewardCoins
	r.f.sessions[id] = s
	return nil
}

func (r fakeSessions) CountByStudentAndTest(ctx context.Context, studentID string, testID uint) (int, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	n := 0
	for _, s := range r.f.sessions {
		if s.StudentID == studentID && s.TestID == testID {
			n++
		}
	}
	return n, nil
}

func (r fakeSessions) BestScore(ctx context.Context, studentID string, testID uint, excludeSessionID uint) (float64, bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	best, found := 0.0, false
	for _, s := range r.f.sessions {
		if s.StudentID != studentID || s.TestID != testID || !s.IsCompleted || s.ID == excludeSessionID {
			continue
		}
		if !found || s.Score > best {
			best, found = s.Score, true
		}
	}
	return best, found, nil
}

func (r fakeSessions) GetExpired(ctx context.Context, now time.Time, limit int) ([]*models.Session, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Session
	for _, s := range r.f.sessions {
		if !s.IsCompleted && s.IsExpiredAt(now) {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AutoFinishAt.Before(*out[j].AutoFinishAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeSessions) ListCompletedByTest(ctx context.Context, testID uint) ([]*models.Session, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Session
	for _, s := range r.f.sessions {
		if s.TestID == testID && s.IsCompleted {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FinishedAt.Equal(*out[j].FinishedAt) {
			return out[i].FinishedAt.Before(*out[j].FinishedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ===== Answers =====

type fakeAnswers struct{ f *fakeStore }

func (r fakeAnswers) GetBySession(ctx context.Context, sessionID uint) ([]models.Answer, error) {
	return r.f.answersOf(sessionID), nil
}

func (r fakeAnswers) Upsert(ctx context.Context, answer *models.Answer) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for id, a := range r.f.answers {
		if a.SessionID == answer.SessionID && a.QuestionID == answer.QuestionID && a.SlotKey == answer.SlotKey {
			answer.ID = id
			r.f.answers[id] = *answer
			return nil
		}
	}
	r.f.nextAnswerID++
	answer.ID = r.f.nextAnswerID
	r.f.answers[answer.ID] = *answer
	return nil
}

func (r fakeAnswers) DeleteSlot(ctx context.Context, sessionID, questionID uint, slotKey string) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for id, a := range r.f.answers {
		if a.SessionID == sessionID && a.QuestionID == questionID && a.SlotKey == slotKey {
			delete(r.f.answers, id)
		}
	}
	return nil
}

func (r fakeAnswers) DeleteBySession(ctx context.Context, sessionID uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for id, a := range r.f.answers {
		if a.SessionID == sessionID {
			delete(r.f.answers, id)
		}
	}
	return nil
}

func (r fakeAnswers) DeleteByQuestion(ctx context.Context, questionID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var n int64
	for id, a := range r.f.answers {
		if a.QuestionID == questionID {
			delete(r.f.answers, id)
			n++
		}
	}
	return n, nil
}

// ===== Profiles =====

type fakeProfiles struct{ f *fakeStore }

func (r fakeProfiles) Get(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	p := r.f.profile(studentID)
	return &p, nil
}

func (r fakeProfiles) GetForUpdate(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	return r.Get(ctx, studentID)
}

func (r fakeProfiles) Save(ctx context.Context, profile *models.StudentProfile) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.profiles[profile.StudentID] = *profile
	return nil
}

func (r fakeProfiles) InvalidateCache(ctx context.Context, studentIDs ...string) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.invalidated = append(r.f.invalidated, studentIDs...)
}

// ===== Clock =====

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
