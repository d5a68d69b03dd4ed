package dbutil

import (
	"database/sql"

	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

// HospitalSelectColumns matches HospitalRow.Dest.
const HospitalSelectColumns = `id, subdomain, name, status,
       max_ai_checks_per_month, ai_checks_used_this_month,
       billing_period_start, billing_period_end,
       assistant_name, assistant_tone, assistant_language,
       assistant_instructions, assistant_style_notes, assistant_intro_template,
       ai_provider, ai_model,
       feature_diet_plan, feature_test_suggestions, feature_doctor_recommendation,
       created_at, updated_at`

type HospitalRow struct {
	H      hospital.Hospital
	Status string
	Start  sql.NullTime
	End    sql.NullTime
}

func (row *HospitalRow) Dest() []any {
	h := &row.H
	a := &h.Assistant
	return []any{
		&h.ID, &h.Subdomain, &h.Name, &row.Status,
		&h.MaxAIChecksPerMonth, &h.AIChecksUsedThisMonth,
		&row.Start, &row.End,
		&a.Name, &a.Tone, &a.Language,
		&a.Instructions, &a.StyleNotes, &a.IntroTemplate,
		&a.Provider, &a.Model,
		&a.Features.DietPlan, &a.Features.TestSuggestions, &a.Features.DoctorRecommendation,
		&h.CreatedAt, &h.UpdatedAt,
	}
}

func (row *HospitalRow) Hospital() *hospital.Hospital {
	h := row.H
	h.Status = hospital.Status(row.Status)
	h.BillingPeriodStart = TimePtr(row.Start)
	h.BillingPeriodEnd = TimePtr(row.End)
	return &h
}

// DoctorSelectColumns matches DoctorRow.Dest.
const DoctorSelectColumns = `id, hospital_id, name, specialization, qualification, expertise, status, created_at`

type DoctorRow struct {
	D         doctor.Doctor
	Expertise []byte
	Status    string
}

func (row *DoctorRow) Dest() []any {
	d := &row.D
	return []any{&d.ID, &d.HospitalID, &d.Name, &d.Specialization, &d.Qualification, &row.Expertise, &row.Status, &d.CreatedAt}
}

func (row *DoctorRow) Doctor() (*doctor.Doctor, error) {
	d := row.D
	d.Status = doctor.Status(row.Status)
	d.Expertise = []string{}
	if err := DecodeJSON(row.Expertise, &d.Expertise); err != nil {
		return nil, err
	}
	return &d, nil
}
