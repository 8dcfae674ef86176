package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/handler/dto"
	"github.com/formula-ihu/quiz-api/internal/service"
)

// ConfigCacheControl lets a CDN serve the quiz config for 30s and revalidate in the background.
const ConfigCacheControl = "public, s-maxage=30, stale-while-revalidate=60"

type quizGetter interface {
	GetQuiz(ctx context.Context) (*entity.QuizDefinition, error)
}

type submitter interface {
	Submit(ctx context.Context, in service.SubmitInput) (*entity.Submission, error)
	Status(ctx context.Context, email string) (*entity.Submission, error)
}

type progressKeeper interface {
	Save(ctx context.Context, in service.ProgressInput) error
	Get(ctx context.Context, email string) (*entity.QuizProgress, error)
}

// QuizHandler serves the public /quiz endpoints.
type QuizHandler struct {
	quizzes     quizGetter
	submissions submitter
	progress    progressKeeper
	autosave    *dto.AutosavePolicy
}

// NewQuizHandler creates the public quiz handler. autosaveDebounce and
// autosaveInterval are advertised to clients in the config response.
func NewQuizHandler(
	quizzes quizGetter,
	submissions submitter,
	progress progressKeeper,
	autosaveDebounce, autosaveInterval time.Duration,
) *QuizHandler {
	return &QuizHandler{
		quizzes:     quizzes,
		submissions: submissions,
		progress:    progress,
		autosave: &dto.AutosavePolicy{
			DebounceMs: autosaveDebounce.Milliseconds(),
			IntervalMs: autosaveInterval.Milliseconds(),
		},
	}
}

// GetConfig returns the current quiz without correct answers.
// GET /quiz/config
func (h *QuizHandler) GetConfig(c *gin.Context) {
	quiz, err := h.quizzes.GetQuiz(c.Request.Context())
	if err != nil {
		handleQuizError(c, err)
		return
	}

	c.Header("Cache-Control", ConfigCacheControl)
	c.JSON(http.StatusOK, dto.NewQuizConfigResponse(quiz, h.autosave))
}

// SaveProgress stores a team's in-flight answers.
// POST /quiz/progress
func (h *QuizHandler) SaveProgress(c *gin.Context) {
	var req dto.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.progress.Save(c.Request.Context(), service.ProgressInput{
		TeamName:        req.TeamName,
		TeamEmail:       req.TeamEmail,
		Answers:         req.Answers,
		StartTime:       req.StartTime,
		CurrentQuestion: req.CurrentQuestion,
	})
	if err != nil {
		handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetProgress returns stored progress or {"progress": null}.
// GET /quiz/progress?teamEmail=
func (h *QuizHandler) GetProgress(c *gin.Context) {
	email, ok := teamEmailQuery(c)
	if !ok {
		return
	}

	progress, err := h.progress.Get(c.Request.Context(), email)
	if err != nil {
		handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProgressEnvelope{Progress: dto.NewProgressResponse(progress)})
}

// GetSubmissionStatus tells a client whether its team already submitted.
// GET /quiz/submit?teamEmail=
func (h *QuizHandler) GetSubmissionStatus(c *gin.Context) {
	email, ok := teamEmailQuery(c)
	if !ok {
		return
	}

	sub, err := h.submissions.Status(c.Request.Context(), email)
	if err != nil {
		handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SubmissionStatusResponse{
		Submitted:  sub != nil,
		Submission: dto.NewSubmissionResponse(sub),
	})
}

// Submit records the team's final answers.
// POST /quiz/submit
func (h *QuizHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sub, err := h.submissions.Submit(c.Request.Context(), service.SubmitInput{
		Team: entity.TeamInfo{
			Name:                  req.TeamName,
			Email:                 req.TeamEmail,
			VehicleCategory:       entity.VehicleCategory(req.VehicleCategory),
			PreferredTeamNumber:   req.PreferredTeamNumber,
			AlternativeTeamNumber: req.AlternativeTeamNumber,
			FuelType:              req.FuelType,
		},
		Answers:   req.Answers,
		TimeTaken: req.TimeTaken,
		Questions: req.Questions,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitResponse{
		Success:      true,
		SubmissionID: sub.ID,
		Submission:   dto.NewSubmissionResponse(sub),
	})
}

func teamEmailQuery(c *gin.Context) (string, bool) {
	email := strings.TrimSpace(c.Query("teamEmail"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "teamEmail query parameter is required"})
		return "", false
	}
	return email, true
}
