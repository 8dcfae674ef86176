package handler

import (
	"errors"
	"log"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/formula-ihu/quiz-api/internal/handler/dto"
	"github.com/formula-ihu/quiz-api/internal/middleware"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
	"github.com/formula-ihu/quiz-api/internal/service"
)

// bindError answers a request whose body could not be bound.
func bindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	details := make([]apperrors.FieldError, 0, len(ve))
	for _, fe := range ve {
		details = append(details, apperrors.FieldError{Field: jsonFieldName(fe.Field()), Message: fe.Tag()})
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.ErrValidation.Error(), "details": details})
}

// jsonFieldName maps a Go field name to the camelCase key used in bodies.
func jsonFieldName(field string) string {
	r, size := utf8.DecodeRuneInString(field)
	if r == utf8.RuneError {
		return field
	}
	return string(unicode.ToLower(r)) + field[size:]
}

// handleQuizError maps service errors to HTTP responses.
func handleQuizError(c *gin.Context, err error) {
	var already *service.AlreadySubmittedError
	var validation *apperrors.ValidationError

	switch {
	case errors.As(err, &already):
		c.JSON(http.StatusBadRequest, dto.AlreadySubmittedResponse{
			Error:            "Quiz already submitted for this team email",
			AlreadySubmitted: true,
			Submission:       dto.NewSubmissionResponse(already.Submission),
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.ErrValidation.Error(), "details": validation.Fields})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnavailable):
		log.Printf("[QuizHandler] Dependency unavailable (request %s): %v", c.GetString(middleware.RequestIDKey), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Temporarily unavailable, please retry"})
	default:
		log.Printf("[QuizHandler] Internal server error (request %s): %v", c.GetString(middleware.RequestIDKey), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
