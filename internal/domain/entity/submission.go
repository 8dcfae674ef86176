package entity

import (
	"strings"
	"time"
)

// Submission is the single authoritative result of a team's attempt.
// team_email carries a unique index; it is the only "first wins" arbiter.
type Submission struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	QuizID                *uint           `gorm:"index" json:"quiz_id,omitempty"`
	TeamName              string          `gorm:"size:200;not null" json:"team_name"`
	TeamEmail             string          `gorm:"size:255;not null;uniqueIndex:idx_quiz_submissions_team_email" json:"team_email"`
	VehicleCategory       VehicleCategory `gorm:"size:2;not null" json:"vehicle_category"`
	TimeTaken             int             `gorm:"not null;default:0" json:"time_taken"`
	Score                 float64         `gorm:"type:numeric(10,2);not null;default:0" json:"score"`
	Answers               Answers         `gorm:"type:jsonb;not null" json:"answers"`
	Questions             RawJSON         `gorm:"type:jsonb" json:"questions"`
	PreferredTeamNumber   string          `gorm:"size:20;not null;default:''" json:"preferred_team_number"`
	AlternativeTeamNumber string          `gorm:"size:20;not null;default:''" json:"alternative_team_number"`
	FuelType              string          `gorm:"size:50;not null;default:''" json:"fuel_type,omitempty"`
	SubmittedAt           time.Time       `gorm:"not null;index" json:"submitted_at"`
	IPAddress             string          `gorm:"size:64;not null;default:''" json:"ip_address"`
	Submitted             bool            `gorm:"not null;default:true" json:"submitted"`
}

// TableName overrides the GORM table name.
func (Submission) TableName() string {
	return "quiz_submissions"
}

// QuizProgress is the mutable in-progress state of an attempt, one row per email.
type QuizProgress struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	TeamEmail       string    `gorm:"size:255;not null;uniqueIndex:idx_quiz_progress_team_email" json:"team_email"`
	TeamName        string    `gorm:"size:200;not null" json:"team_name"`
	Answers         Answers   `gorm:"type:jsonb;not null" json:"answers"`
	StartTime       time.Time `gorm:"not null" json:"start_time"`
	CurrentQuestion int       `gorm:"not null;default:0" json:"current_question"`
	LastUpdated     time.Time `gorm:"not null" json:"last_updated"`
}

// TableName overrides the GORM table name.
func (QuizProgress) TableName() string {
	return "quiz_progress"
}

// TeamInfo is the client-held team identity plus the end-form fields.
type TeamInfo struct {
	Name                  string          `json:"name"`
	Email                 string          `json:"email"`
	VehicleCategory       VehicleCategory `json:"vehicleCategory"`
	PreferredTeamNumber   string          `json:"preferredTeamNumber,omitempty"`
	AlternativeTeamNumber string          `json:"alternativeTeamNumber,omitempty"`
	FuelType              string          `json:"fuelType,omitempty"`
}

// NormalizeEmail is applied to every team email before it is used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
