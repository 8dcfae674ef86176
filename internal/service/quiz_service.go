package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/domain/repository"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
	"github.com/formula-ihu/quiz-api/internal/quizcache"
)

const (
	quizFlightKey  = "current-quiz"
	freshFlightKey = "current-quiz-fresh"
)

// QuizService resolves the single currently relevant quiz definition:
// the active quiz or, when none is active, the most recently created one.
type QuizService struct {
	quizRepo repository.QuizRepository
	cache    *quizcache.Slot
	group    singleflight.Group
	now      func() time.Time
}

// NewQuizService creates the loader. The cache slot is injected so TTLs
// and invalidation can be driven by tests.
func NewQuizService(quizRepo repository.QuizRepository, cache *quizcache.Slot) *QuizService {
	if cache == nil {
		cache = quizcache.New(0, 0, nil)
	}
	return &QuizService{
		quizRepo: quizRepo,
		cache:    cache,
		now:      time.Now,
	}
}

// GetQuiz returns the current quiz or apperrors.ErrNotFound. Content store
// failures are logged and reported as ErrNotFound so callers degrade to
// "quiz unavailable" instead of failing.
func (s *QuizService) GetQuiz(ctx context.Context) (*entity.QuizDefinition, error) {
	if quiz, ok := s.cache.Get(); ok {
		return quiz, nil
	}

	v, err, _ := s.group.Do(quizFlightKey, func() (interface{}, error) {
		// another caller may have filled the slot while we waited
		if quiz, ok := s.cache.Get(); ok {
			return quiz, nil
		}
		return s.load(ctx)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuizService] content store read failed, reporting quiz as unavailable: %v", err)
		}
		return nil, fmt.Errorf("%w: no quiz available", apperrors.ErrNotFound)
	}
	return v.(*entity.QuizDefinition), nil
}

// LoadFresh bypasses the cache, used on the submission path where correct
// answers must be current. Concurrent callers share one store read and the
// result still refreshes the cache.
func (s *QuizService) LoadFresh(ctx context.Context) (*entity.QuizDefinition, error) {
	v, err, _ := s.group.Do(freshFlightKey, func() (interface{}, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.QuizDefinition), nil
}

func (s *QuizService) load(ctx context.Context) (*entity.QuizDefinition, error) {
	quiz, err := s.quizRepo.GetActive(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		quiz, err = s.quizRepo.GetLatest(ctx)
	}
	if err != nil {
		return nil, err
	}
	quiz.SortQuestions()
	s.cache.Set(quiz)
	return quiz, nil
}

// Invalidate drops the cached quiz, e.g. after an import.
func (s *QuizService) Invalidate() {
	s.cache.Invalidate()
}

// IsAttemptable reports whether the quiz can be attempted right now.
func (s *QuizService) IsAttemptable(quiz *entity.QuizDefinition) bool {
	return quiz != nil && quiz.IsAttemptable(s.now())
}

// CacheTTL is the max-age that applies to the cached quiz.
func (s *QuizService) CacheTTL() time.Duration {
	return s.cache.TTL()
}

// ImportQuiz validates and stores quiz content, then drops the cache.
func (s *QuizService) ImportQuiz(ctx context.Context, quiz *entity.QuizDefinition) error {
	if err := quiz.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := s.quizRepo.Save(ctx, quiz); err != nil {
		return fmt.Errorf("save quiz %q: %w", quiz.Title, err)
	}
	log.Printf("[QuizService] imported quiz #%d %q (%d questions, active=%t)", quiz.ID, quiz.Title, len(quiz.Questions), quiz.IsActive)
	s.Invalidate()
	return nil
}

// ActivateQuiz flags one quiz active and drops the cache.
func (s *QuizService) ActivateQuiz(ctx context.Context, quizID uint) error {
	if err := s.quizRepo.Activate(ctx, quizID); err != nil {
		return fmt.Errorf("activate quiz #%d: %w", quizID, err)
	}
	s.Invalidate()
	return nil
}

// ListQuizzes returns every stored quiz, newest first.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]entity.QuizDefinition, error) {
	return s.quizRepo.List(ctx)
}
