package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/bryanwahyu/medassist/internal/domain/usage"
	"github.com/bryanwahyu/medassist/internal/infra/db/dbutil"
)

type UsageRepository struct{ db *sql.DB }

func NewUsageRepository(db *sql.DB) *UsageRepository { return &UsageRepository{db: db} }

func (r *UsageRepository) Append(ctx context.Context, e *usage.Entry) error {
	const q = `
INSERT INTO usage_logs (id, hospital_id, user_id, patient_id, category, provider, model, tokens, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	meta := []byte("{}")
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			meta = b
		}
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.HospitalID, dbutil.NullString(e.UserID), dbutil.NullString(e.PatientID),
		e.Category, e.Provider, e.Model, e.Tokens, string(meta), e.CreatedAt,
	)
	return err
}
