package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/domain/repository"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

var quizStart = time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mcQuestion(pos int, category entity.QuestionCategory, correct string, options ...string) entity.Question {
	return entity.Question{
		Position:      pos,
		Text:          "question",
		Type:          entity.QuestionTypeMultipleChoice,
		Options:       options,
		CorrectOption: correct,
		Category:      category,
	}
}

// scenarioQuiz has Q1 correct B and Q2 correct A, plus one CV-only question.
func scenarioQuiz() *entity.QuizDefinition {
	return &entity.QuizDefinition{
		ID:                 7,
		Title:              "Registration quiz",
		IsActive:           true,
		ScheduledStartTime: quizStart,
		Questions: []entity.Question{
			mcQuestion(2, entity.CategoryCommon, "A", "A", "B", "C"),
			mcQuestion(1, entity.CategoryCommon, "B", "A", "B", "C"),
			mcQuestion(3, entity.CategoryCV, "X", "X", "Y"),
		},
	}
}

// MockQuizRepository implements repository.QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetActive(ctx context.Context) (*entity.QuizDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.QuizDefinition), args.Error(1)
}

func (m *MockQuizRepository) GetLatest(ctx context.Context) (*entity.QuizDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.QuizDefinition), args.Error(1)
}

func (m *MockQuizRepository) Save(ctx context.Context, quiz *entity.QuizDefinition) error {
	return m.Called(ctx, quiz).Error(0)
}

func (m *MockQuizRepository) Activate(ctx context.Context, quizID uint) error {
	return m.Called(ctx, quizID).Error(0)
}

func (m *MockQuizRepository) List(ctx context.Context) ([]entity.QuizDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.QuizDefinition), args.Error(1)
}

// MockEmailService implements EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendQuizConfirmation(ctx context.Context, msg ConfirmationEmail) error {
	return m.Called(ctx, msg).Error(0)
}

// stubQuizLoader returns a fixed quiz or error.
type stubQuizLoader struct {
	quiz *entity.QuizDefinition
	err  error
}

func (s *stubQuizLoader) LoadFresh(ctx context.Context) (*entity.QuizDefinition, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.quiz, nil
}

func (s *stubQuizLoader) GetQuiz(ctx context.Context) (*entity.QuizDefinition, error) {
	return s.LoadFresh(ctx)
}

// memSubmissionRepo honours the team_email unique constraint like the database.
// beforeInsert, when set, runs inside Create before the uniqueness check so a
// test can let a competing submission commit first.
type memSubmissionRepo struct {
	mu           sync.Mutex
	rows         []entity.Submission
	nextID       uint
	createErr    error
	beforeInsert func()
}

func (r *memSubmissionRepo) Create(ctx context.Context, submission *entity.Submission) error {
	if r.beforeInsert != nil {
		hook := r.beforeInsert
		r.beforeInsert = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, row := range r.rows {
		if row.TeamEmail == submission.TeamEmail {
			return repository.ErrDuplicateSubmission
		}
	}
	r.nextID++
	submission.ID = r.nextID
	r.rows = append(r.rows, *submission)
	return nil
}

func (r *memSubmissionRepo) GetEarliestByEmail(ctx context.Context, teamEmail string) (*entity.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *entity.Submission
	for i := range r.rows {
		row := r.rows[i]
		if row.TeamEmail != teamEmail {
			continue
		}
		if found == nil || row.SubmittedAt.Before(found.SubmittedAt) {
			found = &row
		}
	}
	if found == nil {
		return nil, apperrors.ErrNotFound
	}
	return found, nil
}

func (r *memSubmissionRepo) ListAll(ctx context.Context) ([]entity.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Submission, len(r.rows))
	copy(out, r.rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (r *memSubmissionRepo) count(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.TeamEmail == email {
			n++
		}
	}
	return n
}

// memProgressRepo is an upsert-by-email store. beforeUpsert, when set, runs
// once at the start of Upsert so a test can commit a submission in between
// the service's status check and its write.
type memProgressRepo struct {
	mu           sync.Mutex
	rows         map[string]entity.QuizProgress
	deleteErr    error
	deleted      []string
	beforeUpsert func()
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{rows: map[string]entity.QuizProgress{}}
}

func (r *memProgressRepo) Upsert(ctx context.Context, progress *entity.QuizProgress) error {
	if r.beforeUpsert != nil {
		hook := r.beforeUpsert
		r.beforeUpsert = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[progress.TeamEmail] = *progress
	return nil
}

func (r *memProgressRepo) GetByEmail(ctx context.Context, teamEmail string) (*entity.QuizProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[teamEmail]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r *memProgressRepo) DeleteByEmail(ctx context.Context, teamEmail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, teamEmail)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.rows, teamEmail)
	return nil
}
