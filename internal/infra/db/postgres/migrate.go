package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS hospitals (
  id TEXT PRIMARY KEY,
  subdomain TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  max_ai_checks_per_month INTEGER NOT NULL DEFAULT 0,
  ai_checks_used_this_month INTEGER NOT NULL DEFAULT 0,
  billing_period_start TIMESTAMPTZ NULL,
  billing_period_end TIMESTAMPTZ NULL,
  assistant_name TEXT NOT NULL DEFAULT '',
  assistant_tone TEXT NOT NULL DEFAULT '',
  assistant_language TEXT NOT NULL DEFAULT '',
  assistant_instructions TEXT NOT NULL DEFAULT '',
  assistant_style_notes TEXT NOT NULL DEFAULT '',
  assistant_intro_template TEXT NOT NULL DEFAULT '',
  ai_provider TEXT NOT NULL DEFAULT '',
  ai_model TEXT NOT NULL DEFAULT '',
  feature_diet_plan BOOLEAN NOT NULL DEFAULT TRUE,
  feature_test_suggestions BOOLEAN NOT NULL DEFAULT TRUE,
  feature_doctor_recommendation BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	`CREATE TABLE IF NOT EXISTS doctors (
  id TEXT PRIMARY KEY,
  hospital_id TEXT NOT NULL REFERENCES hospitals(id),
  name TEXT NOT NULL,
  specialization TEXT NOT NULL DEFAULT '',
  qualification TEXT NOT NULL DEFAULT '',
  expertise JSONB NOT NULL DEFAULT '[]'::jsonb,
  status TEXT NOT NULL DEFAULT 'active',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	`CREATE INDEX IF NOT EXISTS idx_doctors_hospital_status ON doctors (hospital_id, status);`,
	`CREATE TABLE IF NOT EXISTS assessment_reports (
  id TEXT PRIMARY KEY,
  hospital_id TEXT NOT NULL REFERENCES hospitals(id),
  patient_id TEXT NULL,
  user_id TEXT NULL,
  symptom_input TEXT NOT NULL,
  qa_flow JSONB NOT NULL DEFAULT '[]'::jsonb,
  summary TEXT NOT NULL,
  conditions JSONB NOT NULL DEFAULT '[]'::jsonb,
  risk_level TEXT NOT NULL,
  tests JSONB NOT NULL DEFAULT '[]'::jsonb,
  diet_plan JSONB NOT NULL DEFAULT '[]'::jsonb,
  avoid JSONB NOT NULL DEFAULT '[]'::jsonb,
  home_care JSONB NOT NULL DEFAULT '[]'::jsonb,
  recommended_doctor_id TEXT NULL,
  doctor_name TEXT NULL,
  doctor_qualification TEXT NULL,
  doctor_specialization TEXT NULL,
  provider TEXT NOT NULL,
  model TEXT NOT NULL,
  model_info TEXT NULL,
  disclaimer TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	`CREATE INDEX IF NOT EXISTS idx_reports_hospital_created ON assessment_reports (hospital_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS usage_logs (
  id TEXT PRIMARY KEY,
  hospital_id TEXT NOT NULL,
  user_id TEXT NULL,
  patient_id TEXT NULL,
  category TEXT NOT NULL,
  provider TEXT NOT NULL DEFAULT '',
  model TEXT NOT NULL DEFAULT '',
  tokens INTEGER NOT NULL DEFAULT 0,
  metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	`CREATE INDEX IF NOT EXISTS idx_usage_hospital_created ON usage_logs (hospital_id, created_at DESC);`,
}

// Migrate applies the schema; every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
