package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bryanwahyu/medassist/internal/domain/hospital"
	"github.com/bryanwahyu/medassist/internal/infra/db/dbutil"
)

type HospitalRepository struct{ db *sql.DB }

func NewHospitalRepository(db *sql.DB) *HospitalRepository { return &HospitalRepository{db: db} }

func (r *HospitalRepository) FindBySubdomain(ctx context.Context, subdomain string) (*hospital.Hospital, error) {
	q := `SELECT ` + dbutil.HospitalSelectColumns + `
FROM hospitals
WHERE subdomain=$1
LIMIT 1;`
	return r.one(ctx, q, hospital.NormalizeSubdomain(subdomain))
}

func (r *HospitalRepository) FindByID(ctx context.Context, id string) (*hospital.Hospital, error) {
	q := `SELECT ` + dbutil.HospitalSelectColumns + `
FROM hospitals
WHERE id=$1
LIMIT 1;`
	return r.one(ctx, q, id)
}

func (r *HospitalRepository) one(ctx context.Context, q string, arg any) (*hospital.Hospital, error) {
	var row dbutil.HospitalRow
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(row.Dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hospital.ErrNotFound
		}
		return nil, err
	}
	return row.Hospital(), nil
}

// OpenBillingWindow only touches rows whose window is unset or over.
func (r *HospitalRepository) OpenBillingWindow(ctx context.Context, id string, start, end, now time.Time) (bool, error) {
	const q = `
UPDATE hospitals
SET billing_period_start = $2,
    billing_period_end = $3,
    ai_checks_used_this_month = 0,
    updated_at = $4
WHERE id = $1
  AND (billing_period_start IS NULL OR billing_period_end IS NULL OR billing_period_end < $4);`
	res, err := r.db.ExecContext(ctx, q, id, start, end, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// IncrementUsage is a single conditional update so concurrent commits
// cannot push the counter past the cap.
func (r *HospitalRepository) IncrementUsage(ctx context.Context, id string, now time.Time) (bool, error) {
	const q = `
UPDATE hospitals
SET ai_checks_used_this_month = ai_checks_used_this_month + 1,
    updated_at = $2
WHERE id = $1
  AND (max_ai_checks_per_month <= 0 OR ai_checks_used_this_month < max_ai_checks_per_month)
  AND billing_period_end IS NOT NULL
  AND billing_period_end >= $2;`
	res, err := r.db.ExecContext(ctx, q, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *HospitalRepository) SetPlan(ctx context.Context, id string, maxAIChecksPerMonth int, now time.Time) error {
	const q = `
UPDATE hospitals
SET max_ai_checks_per_month = $2,
    updated_at = $3
WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id, maxAIChecksPerMonth, now)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return hospital.ErrNotFound
	}
	return nil
}
