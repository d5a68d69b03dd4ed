package mysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

func TestHospitalBillingUpdates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewHospitalRepository(db)

	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, 30)

	mock.ExpectExec(regexp.QuoteMeta(`billing_period_end < ?`)).
		WithArgs(now, end, now, "h1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`ai_checks_used_this_month < max_ai_checks_per_month`)).
		WithArgs(now, "h1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	opened, err := repo.OpenBillingWindow(context.Background(), "h1", now, end, now)
	require.NoError(t, err)
	assert.False(t, opened, "window still open")

	ok, err := repo.IncrementUsage(context.Background(), "h1", now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewHospitalRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM hospitals WHERE subdomain=?`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE hospitals SET max_ai_checks_per_month = ?, updated_at = ? WHERE id = ?`)).
		WithArgs(5, now, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = repo.FindBySubdomain(context.Background(), "GHOST")
	assert.ErrorIs(t, err, hospital.ErrNotFound)
	assert.ErrorIs(t, repo.SetPlan(context.Background(), "ghost", 5, now), hospital.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorAndReportScoping(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id=? AND hospital_id=? AND status='active'`)).
		WithArgs("d1", "h1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "hospital_id", "name", "specialization", "qualification", "expertise", "status", "created_at"}).
			AddRow("d1", "h1", "Dr. Lee", "Internal Medicine", "MD", []byte(`["fever"]`), "active", now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM assessment_reports WHERE id=? AND hospital_id=?`)).
		WithArgs("r1", "h2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	d, err := NewDoctorRepository(db).FindActive(context.Background(), "h1", "d1")
	require.NoError(t, err)
	assert.Equal(t, doctor.StatusActive, d.Status)
	assert.Equal(t, []string{"fever"}, d.Expertise)

	_, err = NewReportRepository(db).Get(context.Background(), "h2", "r1")
	assert.ErrorIs(t, err, assessment.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
