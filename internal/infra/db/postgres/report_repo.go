package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/infra/db/dbutil"
)

type ReportRepository struct{ db *sql.DB }

func NewReportRepository(db *sql.DB) *ReportRepository { return &ReportRepository{db: db} }

func (r *ReportRepository) Create(ctx context.Context, rep *assessment.Report) error {
	const q = `
INSERT INTO assessment_reports (
  id, hospital_id, patient_id, user_id, symptom_input,
  qa_flow, summary, conditions, risk_level, tests,
  diet_plan, avoid, home_care,
  recommended_doctor_id, doctor_name, doctor_qualification, doctor_specialization,
  provider, model, model_info, disclaimer, created_at
) VALUES (
  $1, $2, $3, $4, $5,
  $6::jsonb, $7, $8::jsonb, $9, $10::jsonb,
  $11::jsonb, $12::jsonb, $13::jsonb,
  $14, $15, $16, $17,
  $18, $19, $20, $21, $22
);`
	cols := dbutil.EncodeReport(rep)
	name, qual, spec := dbutil.SnapshotColumns(rep.RecommendedDoctor)
	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.HospitalID, dbutil.NullString(rep.PatientID), dbutil.NullString(rep.UserID), rep.SymptomInput,
		cols.QAFlow, rep.Summary, cols.Conditions, string(rep.RiskLevel), cols.Tests,
		cols.DietPlan, cols.Avoid, cols.HomeCare,
		dbutil.NullStringPtr(rep.RecommendedDoctorID), name, qual, spec,
		rep.Provider, rep.Model, dbutil.NullString(rep.ModelInfo), rep.Disclaimer, rep.CreatedAt,
	)
	return err
}

// Get never returns a report of another hospital.
func (r *ReportRepository) Get(ctx context.Context, hospitalID, id string) (*assessment.Report, error) {
	q := `SELECT ` + dbutil.ReportSelectColumns + `
FROM assessment_reports
WHERE id=$1 AND hospital_id=$2
LIMIT 1;`
	var row dbutil.ReportRow
	if err := r.db.QueryRowContext(ctx, q, id, hospitalID).Scan(row.Dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, assessment.ErrNotFound
		}
		return nil, err
	}
	return row.Report()
}
