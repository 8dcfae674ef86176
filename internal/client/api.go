package client

import (
	"context"

	"github.com/formula-ihu/quiz-api/internal/handler/dto"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

// API is the quiz backend as seen by a client.
type API interface {
	// GetConfig returns the public quiz config or an error matching ErrNotFound / ErrUnavailable.
	GetConfig(ctx context.Context) (*dto.QuizConfigResponse, error)
	// GetSubmission returns the team's persisted submission, or nil.
	GetSubmission(ctx context.Context, teamEmail string) (*dto.SubmissionResponse, error)
	// GetProgress returns the server-side progress, or nil.
	GetProgress(ctx context.Context, teamEmail string) (*dto.ProgressResponse, error)
	// SaveProgress upserts progress; *AlreadySubmittedError when the team has submitted.
	SaveProgress(ctx context.Context, req dto.ProgressRequest) error
	// Submit records the attempt; *AlreadySubmittedError when another submission won.
	Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmissionResponse, error)
}

// AlreadySubmittedError carries the persisted submission the server answered with.
type AlreadySubmittedError struct {
	Submission *dto.SubmissionResponse
}

func (e *AlreadySubmittedError) Error() string {
	return apperrors.ErrAlreadySubmitted.Error()
}

// Is makes errors.Is(err, ErrAlreadySubmitted) true.
func (e *AlreadySubmittedError) Is(target error) bool {
	return target == apperrors.ErrAlreadySubmitted
}
