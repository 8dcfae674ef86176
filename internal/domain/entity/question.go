package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StringArray is a JSONB-backed list of strings.
type StringArray []string

// Scan implements sql.Scanner for StringArray.
func (o *StringArray) Scan(value interface{}) error {
	bytes, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}
	return json.Unmarshal(bytes, o)
}

// Value implements driver.Valuer for StringArray.
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // empty JSON array instead of null
	}
	return json.Marshal([]string(o))
}

// jsonBytes normalises what postgres and other drivers hand back for json columns.
func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("failed to unmarshal JSONB value: expected []byte or string")
	}
}

// QuestionType distinguishes scored multiple choice items from free text ones.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeOpenText       QuestionType = "open_text"
)

// QuestionCategory limits which vehicle categories see a question.
type QuestionCategory string

const (
	CategoryCommon QuestionCategory = "common"
	CategoryEV     QuestionCategory = "EV"
	CategoryCV     QuestionCategory = "CV"
)

// VehicleCategory is the team's own classification.
type VehicleCategory string

const (
	VehicleEV VehicleCategory = "EV"
	VehicleCV VehicleCategory = "CV"
)

// Valid reports whether v is EV or CV.
func (v VehicleCategory) Valid() bool {
	return v == VehicleEV || v == VehicleCV
}

// ParseVehicleCategory accepts "ev"/"EV"/"cv"/"CV".
func ParseVehicleCategory(s string) (VehicleCategory, error) {
	v := VehicleCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown vehicle category %q", s)
	}
	return v, nil
}

// DefaultQuestionPoints is the weight of a question without an explicit one.
const DefaultQuestionPoints = 1.0

// Question is one quiz item. Position is the 1-based id used as the answer key.
type Question struct {
	ID            uint             `gorm:"primaryKey" json:"-"`
	QuizID        uint             `gorm:"not null;index;uniqueIndex:idx_quiz_questions_position" json:"-"`
	Position      int              `gorm:"not null;uniqueIndex:idx_quiz_questions_position" json:"id"`
	Text          string           `gorm:"type:text;not null" json:"text"`
	Type          QuestionType     `gorm:"size:20;not null;default:'multiple_choice'" json:"type"`
	Options       StringArray      `gorm:"type:jsonb;not null" json:"options,omitempty"`
	CorrectOption string           `gorm:"type:text;not null;default:''" json:"-"` // never sent to the browser
	Category      QuestionCategory `gorm:"size:10;not null;default:'common'" json:"category"`
	Points        float64          `gorm:"not null;default:1" json:"-"`
	ImageURL      string           `gorm:"size:500;not null;default:''" json:"image_url,omitempty"`
	FileURL       string           `gorm:"size:500;not null;default:''" json:"file_url,omitempty"`
	CreatedAt     time.Time        `json:"-"`
	UpdatedAt     time.Time        `json:"-"`
}

// TableName overrides the GORM table name.
func (Question) TableName() string {
	return "quiz_questions"
}

// IsScored reports whether the question contributes to the score.
func (q *Question) IsScored() bool {
	return q.Type != QuestionTypeOpenText
}

// IsCorrect compares by exact string match against the correct option text.
func (q *Question) IsCorrect(answer string) bool {
	return answer == q.CorrectOption
}

// VisibleTo reports whether a team with the given vehicle category is shown the question.
func (q *Question) VisibleTo(vehicle VehicleCategory) bool {
	if q.Category == "" || q.Category == CategoryCommon {
		return true
	}
	return string(q.Category) == string(vehicle)
}

// Weight returns the configured points, falling back to DefaultQuestionPoints.
func (q *Question) Weight() float64 {
	if q.Points <= 0 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// HasOption reports whether s is one of the options.
func (q *Question) HasOption(s string) bool {
	for _, o := range q.Options {
		if o == s {
			return true
		}
	}
	return false
}

// Validate checks the content invariants an administrator must respect.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question %d: text is required", q.Position)
	}
	switch q.Category {
	case "", CategoryCommon, CategoryEV, CategoryCV:
	default:
		return fmt.Errorf("question %d: unknown category %q", q.Position, q.Category)
	}
	switch q.Type {
	case QuestionTypeMultipleChoice, "":
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: multiple choice needs at least 2 options", q.Position)
		}
		if !q.HasOption(q.CorrectOption) {
			return fmt.Errorf("question %d: correct option %q is not one of the options", q.Position, q.CorrectOption)
		}
	case QuestionTypeOpenText:
		if len(q.Options) > 0 {
			return fmt.Errorf("question %d: open text questions take no options", q.Position)
		}
	default:
		return fmt.Errorf("question %d: unknown type %q", q.Position, q.Type)
	}
	return nil
}
