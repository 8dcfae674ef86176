package repository

import (
	"context"
	"errors"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

// ErrDuplicateSubmission is returned by Create when the team_email unique
// constraint rejected the insert, i.e. another submission committed first.
var ErrDuplicateSubmission = errors.New("submission for this team email already exists")

// ErrAttemptClosed is returned by ProgressRepository.Upsert when a submission
// for the team email already exists and the progress row was not written.
var ErrAttemptClosed = errors.New("attempt already submitted")

// SubmissionRepository persists submissions. Rows are never updated.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *entity.Submission) error
	// GetEarliestByEmail returns the first submission by submitted_at for the email.
	GetEarliestByEmail(ctx context.Context, teamEmail string) (*entity.Submission, error)
	// ListAll returns every submission ordered by submitted_at, then id.
	ListAll(ctx context.Context) ([]entity.Submission, error)
}

// ProgressRepository persists in-progress attempts keyed by team email.
type ProgressRepository interface {
	// Upsert inserts or replaces the row for progress.TeamEmail unless a
	// submission for that email exists, in which case it returns ErrAttemptClosed.
	Upsert(ctx context.Context, progress *entity.QuizProgress) error
	GetByEmail(ctx context.Context, teamEmail string) (*entity.QuizProgress, error)
	DeleteByEmail(ctx context.Context, teamEmail string) error
}
