// Package dbutil holds column encoding shared by the SQL repositories.
package dbutil

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/bryanwahyu/medassist/internal/domain/assessment"
)

// JSON encodes v for a JSON/JSONB column; nil slices become "[]".
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}

// DecodeJSON ignores empty input.
func DecodeJSON(raw []byte, dst any) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// NullString maps "" to NULL.
func NullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func NullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return NullString(*s)
}

func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// ReportColumns are the encoded JSON columns of a report row.
type ReportColumns struct {
	QAFlow     string
	Conditions string
	Tests      string
	DietPlan   string
	Avoid      string
	HomeCare   string
}

func EncodeReport(r *assessment.Report) ReportColumns {
	return ReportColumns{
		QAFlow:     JSON(r.QAFlow),
		Conditions: JSON(r.Conditions),
		Tests:      JSON(r.Tests),
		DietPlan:   JSON(r.DietPlan),
		Avoid:      JSON(r.Avoid),
		HomeCare:   JSON(r.HomeCare),
	}
}

// ReportRow is the scan target shared by the SQL report repositories.
type ReportRow struct {
	R          assessment.Report
	QAFlow     []byte
	Conditions []byte
	Tests      []byte
	DietPlan   []byte
	Avoid      []byte
	HomeCare   []byte
	DoctorID   sql.NullString
	DoctorName sql.NullString
	DoctorQual sql.NullString
	DoctorSpec sql.NullString
	ModelInfo  sql.NullString
	PatientID  sql.NullString
	UserID     sql.NullString
	RiskLevel  string
}

// Dest lists scan destinations in ReportSelectColumns order.
func (row *ReportRow) Dest() []any {
	return []any{
		&row.R.ID, &row.R.HospitalID, &row.PatientID, &row.UserID, &row.R.SymptomInput,
		&row.QAFlow, &row.R.Summary, &row.Conditions, &row.RiskLevel, &row.Tests,
		&row.DietPlan, &row.Avoid, &row.HomeCare,
		&row.DoctorID, &row.DoctorName, &row.DoctorQual, &row.DoctorSpec,
		&row.R.Provider, &row.R.Model, &row.ModelInfo, &row.R.Disclaimer, &row.R.CreatedAt,
	}
}

// ReportSelectColumns matches ReportRow.Dest.
const ReportSelectColumns = `id, hospital_id, patient_id, user_id, symptom_input,
       qa_flow, summary, conditions, risk_level, tests,
       diet_plan, avoid, home_care,
       recommended_doctor_id, doctor_name, doctor_qualification, doctor_specialization,
       provider, model, model_info, disclaimer, created_at`

func (row *ReportRow) Report() (*assessment.Report, error) {
	r := row.R
	r.PatientID = row.PatientID.String
	r.UserID = row.UserID.String
	r.ModelInfo = row.ModelInfo.String
	r.RiskLevel = assessment.RiskLevel(row.RiskLevel)
	r.QAFlow = []assessment.QA{}
	r.Conditions = []assessment.Condition{}
	r.Tests = []assessment.TestSuggestion{}
	r.DietPlan, r.Avoid, r.HomeCare = []string{}, []string{}, []string{}
	for _, c := range []struct {
		raw []byte
		dst any
	}{
		{row.QAFlow, &r.QAFlow},
		{row.Conditions, &r.Conditions},
		{row.Tests, &r.Tests},
		{row.DietPlan, &r.DietPlan},
		{row.Avoid, &r.Avoid},
		{row.HomeCare, &r.HomeCare},
	} {
		if err := DecodeJSON(c.raw, c.dst); err != nil {
			return nil, err
		}
	}
	r.RecommendedDoctorID = StringPtr(row.DoctorID)
	if row.DoctorName.Valid {
		r.RecommendedDoctor = &assessment.DoctorSnapshot{
			Name:           row.DoctorName.String,
			Qualification:  row.DoctorQual.String,
			Specialization: row.DoctorSpec.String,
		}
	}
	return &r, nil
}

// SnapshotColumns splits the doctor snapshot into nullable columns.
func SnapshotColumns(s *assessment.DoctorSnapshot) (sql.NullString, sql.NullString, sql.NullString) {
	if s == nil {
		return sql.NullString{}, sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: s.Name, Valid: true},
		sql.NullString{String: s.Qualification, Valid: true},
		sql.NullString{String: s.Specialization, Valid: true}
}
