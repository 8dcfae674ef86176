package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/domain/repository"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

// ProgressRepo implements repository.ProgressRepository
type ProgressRepo struct {
	db *gorm.DB
}

// NewProgressRepo creates the progress store
func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

const upsertProgressSQL = `
INSERT INTO quiz_progress (team_email, team_name, answers, start_time, current_question, last_updated)
SELECT ?::varchar, ?::varchar, ?::jsonb, ?::timestamptz, ?::integer, ?::timestamptz
WHERE NOT EXISTS (SELECT 1 FROM quiz_submissions WHERE team_email = ?)
ON CONFLICT (team_email) DO UPDATE SET
    team_name = EXCLUDED.team_name,
    answers = EXCLUDED.answers,
    start_time = EXCLUDED.start_time,
    current_question = EXCLUDED.current_question,
    last_updated = EXCLUDED.last_updated`

// Upsert writes the row for progress.TeamEmail, replacing any previous one.
// Two identical calls leave a single row carrying the later last_updated.
// The submission check and the write are one statement, so a save racing a
// submit cannot recreate the row after the submission committed.
func (r *ProgressRepo) Upsert(ctx context.Context, progress *entity.QuizProgress) error {
	result := r.db.WithContext(ctx).Exec(upsertProgressSQL,
		progress.TeamEmail, progress.TeamName, progress.Answers,
		progress.StartTime, progress.CurrentQuestion, progress.LastUpdated,
		progress.TeamEmail,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrAttemptClosed
	}
	return nil
}

// GetByEmail returns the progress row for the email
func (r *ProgressRepo) GetByEmail(ctx context.Context, teamEmail string) (*entity.QuizProgress, error) {
	var progress entity.QuizProgress
	err := r.db.WithContext(ctx).Where("team_email = ?", teamEmail).First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// DeleteByEmail removes the progress row; deleting a missing row is not an error
func (r *ProgressRepo) DeleteByEmail(ctx context.Context, teamEmail string) error {
	return r.db.WithContext(ctx).Where("team_email = ?", teamEmail).Delete(&entity.QuizProgress{}).Error
}
