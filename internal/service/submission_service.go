package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/domain/repository"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
	"github.com/formula-ihu/quiz-api/internal/scoring"
)

// quizLoader is the part of QuizService the submission path needs.
type quizLoader interface {
	LoadFresh(ctx context.Context) (*entity.QuizDefinition, error)
}

// SubmitInput is a team's final submission.
type SubmitInput struct {
	Team      entity.TeamInfo
	Answers   entity.Answers
	TimeTaken int
	// Questions is the client's copy of the presented questions, kept for audit only.
	Questions json.RawMessage
	IPAddress string
}

// SubmissionOptions tunes the submission path.
type SubmissionOptions struct {
	// ContentTimeout bounds the content store read that supplies correct answers.
	ContentTimeout time.Duration
	// Grace is accepted after start+2h for auto submissions still in flight.
	Grace time.Duration
	// EmailTimeout bounds the detached confirmation send.
	EmailTimeout time.Duration
}

// SubmissionService records submissions. The team_email unique constraint of
// the store decides which of two racing submissions wins; this service only
// reacts to the violation.
type SubmissionService struct {
	quizzes      quizLoader
	submissions  repository.SubmissionRepository
	progress     repository.ProgressRepository
	emailService EmailService
	opts         SubmissionOptions
	now          func() time.Time
	// async runs side effects; tests replace it to run them inline
	async func(func())
}

// NewSubmissionService creates the service.
func NewSubmissionService(
	quizzes quizLoader,
	submissions repository.SubmissionRepository,
	progress repository.ProgressRepository,
	emailService EmailService,
	opts SubmissionOptions,
) *SubmissionService {
	if opts.ContentTimeout <= 0 {
		opts.ContentTimeout = 5 * time.Second
	}
	if opts.EmailTimeout <= 0 {
		opts.EmailTimeout = 15 * time.Second
	}
	if emailService == nil {
		emailService = &NoopEmailService{}
	}
	return &SubmissionService{
		quizzes:      quizzes,
		submissions:  submissions,
		progress:     progress,
		emailService: emailService,
		opts:         opts,
		now:          time.Now,
		async:        func(f func()) { go f() },
	}
}

// Submit validates, scores and stores a submission. When another submission
// for the email committed first it returns *AlreadySubmittedError holding
// that earlier submission.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (*entity.Submission, error) {
	in.Team.Email = entity.NormalizeEmail(in.Team.Email)
	in.Team.Name = strings.TrimSpace(in.Team.Name)
	if err := validateSubmission(&in); err != nil {
		return nil, err
	}
	now := s.now()

	score, quizID, err := s.score(ctx, in, now)
	if err != nil {
		return nil, err
	}

	sub := &entity.Submission{
		QuizID:                quizID,
		TeamName:              in.Team.Name,
		TeamEmail:             in.Team.Email,
		VehicleCategory:       in.Team.VehicleCategory,
		TimeTaken:             clampTimeTaken(in.TimeTaken),
		Score:                 score,
		Answers:               in.Answers,
		Questions:             entity.RawJSON(in.Questions),
		PreferredTeamNumber:   strings.TrimSpace(in.Team.PreferredTeamNumber),
		AlternativeTeamNumber: strings.TrimSpace(in.Team.AlternativeTeamNumber),
		FuelType:              strings.TrimSpace(in.Team.FuelType),
		SubmittedAt:           now,
		IPAddress:             in.IPAddress,
		Submitted:             true,
	}
	if sub.VehicleCategory == entity.VehicleEV {
		sub.FuelType = ""
	}

	if err := s.submissions.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			return nil, s.alreadySubmitted(ctx, in.Team.Email)
		}
		log.Printf("[SubmissionService] failed to store submission for %s: %v", in.Team.Email, err)
		return nil, fmt.Errorf("%w: store submission: %v", apperrors.ErrUnavailable, err)
	}
	log.Printf("[SubmissionService] stored submission #%d for %s (%s) score=%.2f time=%ds",
		sub.ID, sub.TeamEmail, sub.VehicleCategory, sub.Score, sub.TimeTaken)

	if err := s.progress.DeleteByEmail(ctx, sub.TeamEmail); err != nil {
		log.Printf("[SubmissionService] failed to delete progress for %s: %v", sub.TeamEmail, err)
	}
	s.sendConfirmation(sub)

	return sub, nil
}

// score recomputes the score from content store data. A content store failure
// degrades to score 0 so the submission is still recorded; the stored answers
// allow a later recompute.
func (s *SubmissionService) score(ctx context.Context, in SubmitInput, now time.Time) (float64, *uint, error) {
	contentCtx, cancel := context.WithTimeout(ctx, s.opts.ContentTimeout)
	defer cancel()

	quiz, err := s.quizzes.LoadFresh(contentCtx)
	if err != nil {
		log.Printf("[SubmissionService] WARNING: quiz unavailable while scoring %s, recording score 0: %v", in.Team.Email, err)
		return 0, nil, nil
	}

	// the fallback quiz returned when none is active only serves display
	if !quiz.IsActive || now.Before(quiz.ScheduledStartTime) || now.After(quiz.EndTime().Add(s.opts.Grace)) {
		v := &apperrors.ValidationError{}
		v.Add("quiz", "the quiz is not open for submissions")
		return 0, nil, v
	}

	filtered := scoring.FilterQuestions(quiz.Questions, in.Team.VehicleCategory)
	score := math.Round(scoring.Score(filtered, in.Answers)*100) / 100
	id := quiz.ID
	return score, &id, nil
}

func (s *SubmissionService) alreadySubmitted(ctx context.Context, email string) error {
	existing, err := s.submissions.GetEarliestByEmail(ctx, email)
	if err != nil {
		log.Printf("[SubmissionService] lost submission race for %s but could not load the winner: %v", email, err)
		return &AlreadySubmittedError{}
	}
	log.Printf("[SubmissionService] duplicate submission for %s, returning submission #%d", email, existing.ID)
	return &AlreadySubmittedError{Submission: existing}
}

func (s *SubmissionService) sendConfirmation(sub *entity.Submission) {
	msg := ConfirmationEmail{
		TeamName:        sub.TeamName,
		TeamEmail:       sub.TeamEmail,
		VehicleCategory: string(sub.VehicleCategory),
		Score:           sub.Score,
		TimeTaken:       sub.TimeTaken,
		SubmittedAt:     sub.SubmittedAt,
		SubmissionID:    sub.ID,
	}
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.EmailTimeout)
		defer cancel()
		if err := s.emailService.SendQuizConfirmation(ctx, msg); err != nil {
			log.Printf("[SubmissionService] confirmation email to %s failed: %v", msg.TeamEmail, err)
		}
	})
}

// Status returns the earliest submission for the email, or nil when the team
// has not submitted.
func (s *SubmissionService) Status(ctx context.Context, email string) (*entity.Submission, error) {
	email = entity.NormalizeEmail(email)
	if email == "" {
		v := &apperrors.ValidationError{}
		v.Add("teamEmail", "is required")
		return nil, v
	}
	sub, err := s.submissions.GetEarliestByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load submission status: %w", err)
	}
	return sub, nil
}

func validateSubmission(in *SubmitInput) error {
	v := &apperrors.ValidationError{}
	if in.Team.Name == "" {
		v.Add("teamName", "is required")
	}
	validateEmail(v, in.Team.Email)
	if !in.Team.VehicleCategory.Valid() {
		v.Add("vehicleCategory", "must be EV or CV")
	}
	if in.Answers == nil {
		v.Add("answers", "is required")
	}
	for pos := range in.Answers {
		if pos < 1 {
			v.Add("answers", fmt.Sprintf("question id %d is invalid", pos))
			break
		}
	}
	if in.TimeTaken < 0 {
		v.Add("timeTaken", "must not be negative")
	}
	return v.OrNil()
}

func validateEmail(v *apperrors.ValidationError, email string) {
	if email == "" {
		v.Add("teamEmail", "is required")
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		v.Add("teamEmail", "is not a valid email address")
	}
}

// clampTimeTaken keeps the stored duration inside the 2h window.
func clampTimeTaken(seconds int) int {
	max := int(entity.QuizDuration / time.Second)
	if seconds > max {
		return max
	}
	if seconds < 0 {
		return 0
	}
	return seconds
}
