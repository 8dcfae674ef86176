package service

import (
	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

// AlreadySubmittedError carries the persisted submission of the team so the
// caller can render its real score and time. It matches apperrors.ErrAlreadySubmitted.
type AlreadySubmittedError struct {
	Submission *entity.Submission
}

func (e *AlreadySubmittedError) Error() string {
	return apperrors.ErrAlreadySubmitted.Error()
}

// Is makes errors.Is(err, apperrors.ErrAlreadySubmitted) true.
func (e *AlreadySubmittedError) Is(target error) bool {
	return target == apperrors.ErrAlreadySubmitted
}
