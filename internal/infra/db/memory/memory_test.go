package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

func TestHospitalConditionalUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewHospitalRepository()
	repo.Put(&hospital.Hospital{ID: "h1", Subdomain: " Sunrise ", Status: hospital.StatusActive, MaxAIChecksPerMonth: 2})

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	ok, err := repo.IncrementUsage(ctx, "h1", now)
	require.NoError(t, err)
	assert.False(t, ok, "no window yet")

	opened, err := repo.OpenBillingWindow(ctx, "h1", now, now.AddDate(0, 0, 30), now)
	require.NoError(t, err)
	assert.True(t, opened)
	opened, _ = repo.OpenBillingWindow(ctx, "h1", now, now.AddDate(0, 0, 30), now.Add(time.Hour))
	assert.False(t, opened, "window still open")

	for i := 0; i < 2; i++ {
		ok, _ = repo.IncrementUsage(ctx, "h1", now)
		assert.True(t, ok)
	}
	ok, _ = repo.IncrementUsage(ctx, "h1", now)
	assert.False(t, ok, "cap reached")

	h, err := repo.FindBySubdomain(ctx, "SUNRISE")
	require.NoError(t, err)
	assert.Equal(t, 2, h.AIChecksUsedThisMonth)

	h.AIChecksUsedThisMonth = 99
	again, _ := repo.FindByID(ctx, "h1")
	assert.Equal(t, 2, again.AIChecksUsedThisMonth, "reads are copies")

	later := now.AddDate(0, 0, 31)
	opened, _ = repo.OpenBillingWindow(ctx, "h1", later, later.AddDate(0, 0, 30), later)
	assert.True(t, opened)
	again, _ = repo.FindByID(ctx, "h1")
	assert.Zero(t, again.AIChecksUsedThisMonth)

	assert.ErrorIs(t, repo.SetPlan(ctx, "ghost", 1, now), hospital.ErrNotFound)
	_, err = repo.FindBySubdomain(ctx, "ghost")
	assert.ErrorIs(t, err, hospital.ErrNotFound)
}

func TestReportRepositoryScopesByHospital(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository()
	require.NoError(t, repo.Create(ctx, &assessment.Report{ID: "r1", HospitalID: "h1", Summary: "x"}))

	got, err := repo.Get(ctx, "h1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Summary)

	_, err = repo.Get(ctx, "h2", "r1")
	assert.ErrorIs(t, err, assessment.ErrNotFound)
	assert.Equal(t, 1, repo.Len())
}

func TestSeedApply(t *testing.T) {
	seed, err := LoadSeed(filepath.Join("..", "..", "..", "..", "seed.example.yaml"))
	require.NoError(t, err)

	hospitals, doctors := NewHospitalRepository(), NewDoctorRepository()
	now := time.Now().UTC()
	seed.Apply(hospitals, doctors, now)

	h, err := hospitals.FindBySubdomain(context.Background(), "sunrise")
	require.NoError(t, err)
	assert.Equal(t, hospital.StatusActive, h.Status)
	assert.Equal(t, 100, h.MaxAIChecksPerMonth)
	assert.Equal(t, "Mira", h.Assistant.Name)
	assert.True(t, h.Assistant.Features.DoctorRecommendation)

	closed, err := hospitals.FindBySubdomain(context.Background(), "closed")
	require.NoError(t, err)
	assert.Equal(t, hospital.StatusSuspended, closed.Status)
	assert.Equal(t, hospital.DefaultFeatures(), closed.Assistant.Features)

	roster, err := doctors.ListActive(context.Background(), "h-sunrise")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "d-lee", roster[0].ID)
	assert.Equal(t, []string{"chest pain", "palpitations"}, roster[1].Expertise)
}

func TestLoadSeedRejectsBadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(p, []byte("hospitals: [: nope"), 0o600))
	_, err := LoadSeed(p)
	assert.ErrorContains(t, err, "parse seed")
}
