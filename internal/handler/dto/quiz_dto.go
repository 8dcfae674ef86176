package dto

import (
	"encoding/json"
	"time"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

// QuestionResponse is a question as sent to the browser. It never carries
// the correct option.
type QuestionResponse struct {
	ID       int                     `json:"id"`
	Text     string                  `json:"text"`
	Type     entity.QuestionType     `json:"type"`
	Options  []string                `json:"options,omitempty"`
	Category entity.QuestionCategory `json:"category"`
	ImageURL string                  `json:"imageUrl,omitempty"`
	FileURL  string                  `json:"fileUrl,omitempty"`
}

// AutosavePolicy tells clients how often to push progress.
type AutosavePolicy struct {
	DebounceMs int64 `json:"debounceMs"`
	IntervalMs int64 `json:"intervalMs"`
}

// QuizConfigResponse is the body of GET /quiz/config.
type QuizConfigResponse struct {
	ID                 uint               `json:"id"`
	Title              string             `json:"title"`
	ScheduledStartTime time.Time          `json:"scheduledStartTime"`
	EndTime            time.Time          `json:"endTime"`
	DurationMinutes    int                `json:"durationMinutes"`
	IsActive           bool               `json:"isActive"`
	Instructions       string             `json:"instructions"`
	Questions          []QuestionResponse `json:"questions"`
	Autosave           *AutosavePolicy    `json:"autosave,omitempty"`
}

// NewQuestionResponse strips the grading fields from a question.
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	category := q.Category
	if category == "" {
		category = entity.CategoryCommon
	}
	return QuestionResponse{
		ID:       q.Position,
		Text:     q.Text,
		Type:     q.Type,
		Options:  q.Options,
		Category: category,
		ImageURL: q.ImageURL,
		FileURL:  q.FileURL,
	}
}

// NewQuizConfigResponse builds the public view of a quiz.
func NewQuizConfigResponse(quiz *entity.QuizDefinition, autosave *AutosavePolicy) *QuizConfigResponse {
	questions := make([]QuestionResponse, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		questions = append(questions, NewQuestionResponse(&quiz.Questions[i]))
	}
	return &QuizConfigResponse{
		ID:                 quiz.ID,
		Title:              quiz.Title,
		ScheduledStartTime: quiz.ScheduledStartTime,
		EndTime:            quiz.EndTime(),
		DurationMinutes:    int(entity.QuizDuration / time.Minute),
		IsActive:           quiz.IsActive,
		Instructions:       quiz.Instructions,
		Questions:          questions,
		Autosave:           autosave,
	}
}

// SubmitRequest is the body of POST /quiz/submit.
type SubmitRequest struct {
	TeamName              string          `json:"teamName" binding:"required,max=200"`
	TeamEmail             string          `json:"teamEmail" binding:"required,email,max=255"`
	VehicleCategory       string          `json:"vehicleCategory" binding:"required,oneof=EV CV"`
	Answers               entity.Answers  `json:"answers" binding:"required"`
	TimeTaken             int             `json:"timeTaken" binding:"min=0"`
	Questions             json.RawMessage `json:"questions"`
	PreferredTeamNumber   string          `json:"preferredTeamNumber" binding:"max=20"`
	AlternativeTeamNumber string          `json:"alternativeTeamNumber" binding:"max=20"`
	FuelType              string          `json:"fuelType" binding:"max=50"`
}

// ProgressRequest is the body of POST /quiz/progress.
type ProgressRequest struct {
	TeamName        string         `json:"teamName" binding:"required,max=200"`
	TeamEmail       string         `json:"teamEmail" binding:"required,email,max=255"`
	Answers         entity.Answers `json:"answers"`
	StartTime       time.Time      `json:"startTime" binding:"required"`
	CurrentQuestion int            `json:"currentQuestion" binding:"min=0"`
}

// SubmissionResponse is a persisted submission as shown to its team.
type SubmissionResponse struct {
	ID                    uint                   `json:"id"`
	TeamName              string                 `json:"teamName"`
	TeamEmail             string                 `json:"teamEmail"`
	VehicleCategory       entity.VehicleCategory `json:"vehicleCategory"`
	Score                 float64                `json:"score"`
	TimeTaken             int                    `json:"timeTaken"`
	SubmittedAt           time.Time              `json:"submittedAt"`
	PreferredTeamNumber   string                 `json:"preferredTeamNumber,omitempty"`
	AlternativeTeamNumber string                 `json:"alternativeTeamNumber,omitempty"`
	FuelType              string                 `json:"fuelType,omitempty"`
}

// NewSubmissionResponse hides the audit fields (ip, raw questions).
func NewSubmissionResponse(s *entity.Submission) *SubmissionResponse {
	if s == nil {
		return nil
	}
	return &SubmissionResponse{
		ID:                    s.ID,
		TeamName:              s.TeamName,
		TeamEmail:             s.TeamEmail,
		VehicleCategory:       s.VehicleCategory,
		Score:                 s.Score,
		TimeTaken:             s.TimeTaken,
		SubmittedAt:           s.SubmittedAt,
		PreferredTeamNumber:   s.PreferredTeamNumber,
		AlternativeTeamNumber: s.AlternativeTeamNumber,
		FuelType:              s.FuelType,
	}
}

// SubmissionStatusResponse is the body of GET /quiz/submit.
type SubmissionStatusResponse struct {
	Submitted  bool                `json:"submitted"`
	Submission *SubmissionResponse `json:"submission"`
}

// SubmitResponse is the body of a successful POST /quiz/submit.
type SubmitResponse struct {
	Success      bool                `json:"success"`
	SubmissionID uint                `json:"submissionId"`
	Submission   *SubmissionResponse `json:"submission"`
}

// AlreadySubmittedResponse is the 400 body when the team already submitted.
type AlreadySubmittedResponse struct {
	Error            string              `json:"error"`
	AlreadySubmitted bool                `json:"alreadySubmitted"`
	Submission       *SubmissionResponse `json:"submission"`
}

// ProgressResponse is stored progress as sent to its team.
type ProgressResponse struct {
	TeamEmail       string         `json:"teamEmail"`
	TeamName        string         `json:"teamName"`
	Answers         entity.Answers `json:"answers"`
	StartTime       time.Time      `json:"startTime"`
	CurrentQuestion int            `json:"currentQuestion"`
	LastUpdated     time.Time      `json:"lastUpdated"`
}

// NewProgressResponse converts progress; nil stays nil.
func NewProgressResponse(p *entity.QuizProgress) *ProgressResponse {
	if p == nil {
		return nil
	}
	return &ProgressResponse{
		TeamEmail:       p.TeamEmail,
		TeamName:        p.TeamName,
		Answers:         p.Answers,
		StartTime:       p.StartTime,
		CurrentQuestion: p.CurrentQuestion,
		LastUpdated:     p.LastUpdated,
	}
}

// ProgressEnvelope is the body of GET /quiz/progress.
type ProgressEnvelope struct {
	Progress *ProgressResponse `json:"progress"`
}

// AdminLoginRequest is the body of POST /admin/login.
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}
