package entity

import (
	"fmt"
	"sort"
	"time"
)

// QuizDuration is the fixed attempt window. It is not configurable per quiz.
const QuizDuration = 2 * time.Hour

// QuizDefinition is the authoritative quiz content, edited by administrators.
type QuizDefinition struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Title              string     `gorm:"size:200;not null" json:"title"`
	IsActive           bool       `gorm:"not null;default:false;index" json:"is_active"`
	ScheduledStartTime time.Time  `gorm:"not null" json:"scheduled_start_time"`
	Instructions       string     `gorm:"type:text;not null;default:''" json:"instructions"`
	Questions          []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName overrides the GORM table name.
func (QuizDefinition) TableName() string {
	return "quizzes"
}

// EndTime is scheduledStartTime + 2h.
func (q *QuizDefinition) EndTime() time.Time {
	return q.ScheduledStartTime.Add(QuizDuration)
}

// HasStarted reports now >= start.
func (q *QuizDefinition) HasStarted(now time.Time) bool {
	return !now.Before(q.ScheduledStartTime)
}

// HasEnded reports now > end.
func (q *QuizDefinition) HasEnded(now time.Time) bool {
	return now.After(q.EndTime())
}

// InWindow reports whether now is inside [start, start+2h].
func (q *QuizDefinition) InWindow(now time.Time) bool {
	return q.HasStarted(now) && !q.HasEnded(now)
}

// IsAttemptable is true only for the active quiz inside its window.
// The inactive fallback quiz is never attemptable.
func (q *QuizDefinition) IsAttemptable(now time.Time) bool {
	return q.IsActive && q.InWindow(now)
}

// SortQuestions orders questions by position.
func (q *QuizDefinition) SortQuestions() {
	sort.SliceStable(q.Questions, func(i, j int) bool {
		return q.Questions[i].Position < q.Questions[j].Position
	})
}

// QuestionByPosition looks a question up by its 1-based id.
func (q *QuizDefinition) QuestionByPosition(pos int) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].Position == pos {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

// Validate checks title, positions and every question.
func (q *QuizDefinition) Validate() error {
	if q.Title == "" {
		return fmt.Errorf("quiz title is required")
	}
	if q.ScheduledStartTime.IsZero() {
		return fmt.Errorf("quiz scheduled start time is required")
	}
	seen := make(map[int]bool, len(q.Questions))
	for i := range q.Questions {
		question := &q.Questions[i]
		if question.Position < 1 {
			return fmt.Errorf("question #%d: position must be >= 1", i+1)
		}
		if seen[question.Position] {
			return fmt.Errorf("question position %d is duplicated", question.Position)
		}
		seen[question.Position] = true
		if err := question.Validate(); err != nil {
			return err
		}
	}
	return nil
}
