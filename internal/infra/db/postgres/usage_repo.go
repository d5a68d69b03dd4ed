package postgres

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
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10);`
	meta, err := json.Marshal(e.Metadata)
	if err != nil || e.Metadata == nil {
		meta = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx, q,
		e.ID, e.HospitalID, dbutil.NullString(e.UserID), dbutil.NullString(e.PatientID),
		e.Category, e.Provider, e.Model, e.Tokens, string(meta), e.CreatedAt,
	)
	return err
}
