package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/domain/repository"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

// ProgressInput is one autosave of an in-progress attempt.
type ProgressInput struct {
	TeamName        string
	TeamEmail       string
	Answers         entity.Answers
	StartTime       time.Time
	CurrentQuestion int
}

// ProgressService stores in-progress answers keyed by team email.
type ProgressService struct {
	progress    repository.ProgressRepository
	submissions repository.SubmissionRepository
	now         func() time.Time
}

// NewProgressService creates the service.
func NewProgressService(progress repository.ProgressRepository, submissions repository.SubmissionRepository) *ProgressService {
	return &ProgressService{progress: progress, submissions: submissions, now: time.Now}
}

// Save upserts the team's progress. Saving twice with the same payload leaves
// one row whose last_updated is the second call's time. Once a submission
// exists the save is rejected so progress never resurrects a finished attempt.
func (s *ProgressService) Save(ctx context.Context, in ProgressInput) error {
	in.TeamEmail = entity.NormalizeEmail(in.TeamEmail)
	in.TeamName = strings.TrimSpace(in.TeamName)

	v := &apperrors.ValidationError{}
	if in.TeamName == "" {
		v.Add("teamName", "is required")
	}
	validateEmail(v, in.TeamEmail)
	if in.StartTime.IsZero() {
		v.Add("startTime", "is required")
	}
	if in.CurrentQuestion < 0 {
		v.Add("currentQuestion", "must not be negative")
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	if err := s.checkOpen(ctx, in.TeamEmail); err != nil {
		return err
	}

	answers := in.Answers
	if answers == nil {
		answers = entity.Answers{}
	}
	progress := &entity.QuizProgress{
		TeamEmail:       in.TeamEmail,
		TeamName:        in.TeamName,
		Answers:         answers,
		StartTime:       in.StartTime,
		CurrentQuestion: in.CurrentQuestion,
		LastUpdated:     s.now(),
	}
	if err := s.progress.Upsert(ctx, progress); err != nil {
		if errors.Is(err, repository.ErrAttemptClosed) {
			return s.checkOpen(ctx, in.TeamEmail)
		}
		return fmt.Errorf("save progress: %w", err)
	}

	// a submit may have committed and cleared progress between the check and
	// the write; drop the row it would otherwise leave behind
	if err := s.checkOpen(ctx, in.TeamEmail); err != nil {
		var already *AlreadySubmittedError
		if errors.As(err, &already) {
			if delErr := s.progress.DeleteByEmail(ctx, in.TeamEmail); delErr != nil {
				log.Printf("[ProgressService] failed to drop progress saved after submission for %s: %v", in.TeamEmail, delErr)
			}
		}
		return err
	}
	return nil
}

// checkOpen returns *AlreadySubmittedError once the team has a submission.
func (s *ProgressService) checkOpen(ctx context.Context, email string) error {
	existing, err := s.submissions.GetEarliestByEmail(ctx, email)
	switch {
	case err == nil:
		return &AlreadySubmittedError{Submission: existing}
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check submission status: %w", err)
	}
}

// Get returns the team's progress, or nil when none is stored.
func (s *ProgressService) Get(ctx context.Context, email string) (*entity.QuizProgress, error) {
	email = entity.NormalizeEmail(email)
	if email == "" {
		v := &apperrors.ValidationError{}
		v.Add("teamEmail", "is required")
		return nil, v
	}
	progress, err := s.progress.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return progress, nil
}
