package repository

import (
	"context"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

// QuizRepository is the typed read/write surface of the content store.
// Reads return apperrors.ErrNotFound when nothing matches and
// apperrors.ErrNotConfigured when the store itself is missing, so callers
// never mistake a misconfiguration for empty content.
type QuizRepository interface {
	// GetActive returns the quiz flagged is_active, with questions ordered by position.
	GetActive(ctx context.Context) (*entity.QuizDefinition, error)
	// GetLatest returns the most recently created quiz regardless of its flag.
	GetLatest(ctx context.Context) (*entity.QuizDefinition, error)
	// Save stores a quiz and its questions. Activating it deactivates every other quiz.
	Save(ctx context.Context, quiz *entity.QuizDefinition) error
	// Activate flags one quiz active and every other inactive.
	Activate(ctx context.Context, quizID uint) error
	// List returns quizzes without questions, newest first.
	List(ctx context.Context) ([]entity.QuizDefinition, error)
}
