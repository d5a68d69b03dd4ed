package hospital

import (
	"strings"
	"time"
)

// Status enum
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusBanned    Status = "banned"
)

// Features toggles the optional sections of an assessment report.
type Features struct {
	DietPlan             bool `json:"diet_plan"`
	TestSuggestions      bool `json:"test_suggestions"`
	DoctorRecommendation bool `json:"doctor_recommendation"`
}

// DefaultFeatures enables every section.
func DefaultFeatures() Features {
	return Features{DietPlan: true, TestSuggestions: true, DoctorRecommendation: true}
}

// Assistant is the per-hospital configuration of the pre-assessment assistant.
// Empty fields fall back to system defaults.
type Assistant struct {
	Name          string   `json:"name,omitempty"`
	Tone          string   `json:"tone,omitempty"`
	Language      string   `json:"language,omitempty"`
	Instructions  string   `json:"instructions,omitempty"`
	StyleNotes    string   `json:"style_notes,omitempty"`
	IntroTemplate string   `json:"intro_template,omitempty"`
	Provider      string   `json:"provider,omitempty"`
	Model         string   `json:"model,omitempty"`
	Features      Features `json:"features"`
}

// Aggregate Root: Hospital (tenant)
type Hospital struct {
	ID                    string     `json:"id"`
	Subdomain             string     `json:"subdomain"`
	Name                  string     `json:"name"`
	Status                Status     `json:"status"`
	MaxAIChecksPerMonth   int        `json:"max_ai_checks_per_month"`
	AIChecksUsedThisMonth int        `json:"ai_checks_used_this_month"`
	BillingPeriodStart    *time.Time `json:"billing_period_start,omitempty"`
	BillingPeriodEnd      *time.Time `json:"billing_period_end,omitempty"`
	Assistant             Assistant  `json:"assistant"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (h *Hospital) IsActive() bool { return h.Status == StatusActive }

// WindowExpired reports whether a new billing window must be opened at now.
func (h *Hospital) WindowExpired(now time.Time) bool {
	if h.BillingPeriodStart == nil || h.BillingPeriodEnd == nil {
		return true
	}
	return h.BillingPeriodEnd.Before(now)
}

// Unlimited is true when no monthly cap applies.
func (h *Hospital) Unlimited() bool { return h.MaxAIChecksPerMonth <= 0 }

// LimitReached does not look at the billing window; roll it over first.
func (h *Hospital) LimitReached() bool {
	return !h.Unlimited() && h.AIChecksUsedThisMonth >= h.MaxAIChecksPerMonth
}

// NormalizeSubdomain lowercases and trims a subdomain candidate.
func NormalizeSubdomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
