package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/domain/repository"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

// SubmissionRepo implements repository.SubmissionRepository
type SubmissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo creates the submission store
func NewSubmissionRepo(db *gorm.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// Create inserts a submission. The unique index on team_email decides which of
// two racing requests wins; the loser gets repository.ErrDuplicateSubmission.
func (r *SubmissionRepo) Create(ctx context.Context, submission *entity.Submission) error {
	err := r.db.WithContext(ctx).Create(submission).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateSubmission, submission.TeamEmail)
		}
		return err
	}
	return nil
}

// GetEarliestByEmail returns the first submission for the email
func (r *SubmissionRepo) GetEarliestByEmail(ctx context.Context, teamEmail string) (*entity.Submission, error) {
	var submission entity.Submission
	err := r.db.WithContext(ctx).
		Where("team_email = ?", teamEmail).
		Order("submitted_at ASC, id ASC").
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// ListAll returns every submission in submission order
func (r *SubmissionRepo) ListAll(ctx context.Context) ([]entity.Submission, error) {
	var submissions []entity.Submission
	err := r.db.WithContext(ctx).
		Order("submitted_at ASC, id ASC").
		Find(&submissions).Error
	return submissions, err
}
