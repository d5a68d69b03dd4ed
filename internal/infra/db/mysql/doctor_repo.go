package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/infra/db/dbutil"
)

type DoctorRepository struct{ db *sql.DB }

func NewDoctorRepository(db *sql.DB) *DoctorRepository { return &DoctorRepository{db: db} }

func (r *DoctorRepository) ListActive(ctx context.Context, hospitalID string) ([]*doctor.Doctor, error) {
	q := `SELECT ` + dbutil.DoctorSelectColumns + `
FROM doctors
WHERE hospital_id=? AND status='active'
ORDER BY name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*doctor.Doctor
	for rows.Next() {
		var row dbutil.DoctorRow
		if err := rows.Scan(row.Dest()...); err != nil {
			return nil, err
		}
		d, err := row.Doctor()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DoctorRepository) FindActive(ctx context.Context, hospitalID, id string) (*doctor.Doctor, error) {
	q := `SELECT ` + dbutil.DoctorSelectColumns + ` FROM doctors WHERE id=? AND hospital_id=? AND status='active' LIMIT 1`
	var row dbutil.DoctorRow
	if err := r.db.QueryRowContext(ctx, q, id, hospitalID).Scan(row.Dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, doctor.ErrNotFound
		}
		return nil, err
	}
	return row.Doctor()
}
