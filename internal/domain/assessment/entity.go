package assessment

import (
	"strings"
	"time"
)

// Disclaimer is attached to every report.
const Disclaimer = "This pre-assessment is generated by an AI assistant for informational purposes only. " +
	"It is not a medical diagnosis. Please consult a qualified doctor before making any health decision."

// RiskLevel enum
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Priority enum for suggested tests
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority falls back to medium for unknown values.
func ParsePriority(s string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p
	}
	return PriorityMedium
}

// QA is one follow-up turn.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Condition struct {
	Name        string `json:"name"`
	Probability string `json:"probability"`
	Notes       string `json:"notes,omitempty"`
}

type TestSuggestion struct {
	Name     string   `json:"name"`
	Priority Priority `json:"priority"`
	Notes    string   `json:"notes,omitempty"`
}

// DoctorSnapshot keeps the doctor's display fields as they were when the
// report was created.
type DoctorSnapshot struct {
	Name           string `json:"name"`
	Qualification  string `json:"qualification"`
	Specialization string `json:"specialization"`
}

// Aggregate Root: Report
type Report struct {
	ID                  string           `json:"id"`
	HospitalID          string           `json:"hospital_id"`
	PatientID           string           `json:"patient_id"`
	UserID              string           `json:"user_id"`
	SymptomInput        string           `json:"symptom_input"`
	QAFlow              []QA             `json:"qa_flow"`
	Summary             string           `json:"summary"`
	Conditions          []Condition      `json:"conditions"`
	RiskLevel           RiskLevel        `json:"risk_level"`
	Tests               []TestSuggestion `json:"tests"`
	DietPlan            []string         `json:"diet_plan"`
	Avoid               []string         `json:"avoid"`
	HomeCare            []string         `json:"home_care"`
	RecommendedDoctorID *string          `json:"recommended_doctor_id"`
	RecommendedDoctor   *DoctorSnapshot  `json:"recommended_doctor"`
	Provider            string           `json:"provider"`
	Model               string           `json:"model"`
	ModelInfo           string           `json:"model_info,omitempty"`
	Disclaimer          string           `json:"disclaimer"`
	CreatedAt           time.Time        `json:"created_at"`
}
