package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS hospitals (
  id VARCHAR(64) PRIMARY KEY,
  subdomain VARCHAR(128) NOT NULL UNIQUE,
  name VARCHAR(255) NOT NULL,
  status VARCHAR(16) NOT NULL DEFAULT 'active',
  max_ai_checks_per_month INT NOT NULL DEFAULT 0,
  ai_checks_used_this_month INT NOT NULL DEFAULT 0,
  billing_period_start DATETIME(6) NULL,
  billing_period_end DATETIME(6) NULL,
  assistant_name VARCHAR(128) NOT NULL DEFAULT '',
  assistant_tone VARCHAR(128) NOT NULL DEFAULT '',
  assistant_language VARCHAR(64) NOT NULL DEFAULT '',
  assistant_instructions TEXT NOT NULL,
  assistant_style_notes TEXT NOT NULL,
  assistant_intro_template TEXT NOT NULL,
  ai_provider VARCHAR(32) NOT NULL DEFAULT '',
  ai_model VARCHAR(128) NOT NULL DEFAULT '',
  feature_diet_plan BOOLEAN NOT NULL DEFAULT TRUE,
  feature_test_suggestions BOOLEAN NOT NULL DEFAULT TRUE,
  feature_doctor_recommendation BOOLEAN NOT NULL DEFAULT TRUE,
  created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS doctors (
  id VARCHAR(64) PRIMARY KEY,
  hospital_id VARCHAR(64) NOT NULL,
  name VARCHAR(255) NOT NULL,
  specialization VARCHAR(255) NOT NULL DEFAULT '',
  qualification VARCHAR(255) NOT NULL DEFAULT '',
  expertise JSON NOT NULL,
  status VARCHAR(16) NOT NULL DEFAULT 'active',
  created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  INDEX idx_doctors_hospital_status (hospital_id, status),
  CONSTRAINT fk_doctors_hospital FOREIGN KEY (hospital_id) REFERENCES hospitals(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS assessment_reports (
  id VARCHAR(64) PRIMARY KEY,
  hospital_id VARCHAR(64) NOT NULL,
  patient_id VARCHAR(64) NULL,
  user_id VARCHAR(64) NULL,
  symptom_input TEXT NOT NULL,
  qa_flow JSON NOT NULL,
  summary TEXT NOT NULL,
  conditions JSON NOT NULL,
  risk_level VARCHAR(16) NOT NULL,
  tests JSON NOT NULL,
  diet_plan JSON NOT NULL,
  avoid JSON NOT NULL,
  home_care JSON NOT NULL,
  recommended_doctor_id VARCHAR(64) NULL,
  doctor_name VARCHAR(255) NULL,
  doctor_qualification VARCHAR(255) NULL,
  doctor_specialization VARCHAR(255) NULL,
  provider VARCHAR(32) NOT NULL,
  model VARCHAR(128) NOT NULL,
  model_info VARCHAR(255) NULL,
  disclaimer TEXT NOT NULL,
  created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  INDEX idx_reports_hospital_created (hospital_id, created_at),
  CONSTRAINT fk_reports_hospital FOREIGN KEY (hospital_id) REFERENCES hospitals(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS usage_logs (
  id VARCHAR(64) PRIMARY KEY,
  hospital_id VARCHAR(64) NOT NULL,
  user_id VARCHAR(64) NULL,
  patient_id VARCHAR(64) NULL,
  category VARCHAR(64) NOT NULL,
  provider VARCHAR(32) NOT NULL DEFAULT '',
  model VARCHAR(128) NOT NULL DEFAULT '',
  tokens INT NOT NULL DEFAULT 0,
  metadata JSON NOT NULL,
  created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  INDEX idx_usage_hospital_created (hospital_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
