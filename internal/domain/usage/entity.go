package usage

import "time"

// CategoryAIAssessment tags entries written for completed assessments.
const CategoryAIAssessment = "ai_assessment"

// Entry is an append-only audit row used for billing and analytics.
type Entry struct {
	ID         string         `json:"id"`
	HospitalID string         `json:"hospital_id"`
	UserID     string         `json:"user_id,omitempty"`
	PatientID  string         `json:"patient_id,omitempty"`
	Category   string         `json:"category"`
	Provider   string         `json:"provider"`
	Model      string         `json:"model"`
	Tokens     int            `json:"tokens"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
