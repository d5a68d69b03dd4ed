package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medassist/internal/domain/hospital"
	"github.com/bryanwahyu/medassist/internal/infra/db/memory"
)

func TestCandidate(t *testing.T) {
	cases := []struct {
		name, host, hint, want string
	}{
		{"subdomain of base domain", "sunrise.medassist.io", "", "sunrise"},
		{"port is ignored", "sunrise.medassist.io:8443", "", "sunrise"},
		{"uppercase host", "SunRise.MedAssist.io", "", "sunrise"},
		{"apex domain is global", "medassist.io", "", ""},
		{"www is reserved", "www.medassist.io", "", ""},
		{"api is reserved", "api.medassist.io", "", ""},
		{"localhost subdomain", "sunrise.localhost:3000", "", "sunrise"},
		{"bare localhost", "localhost:8080", "", ""},
		{"ipv4 host", "10.0.0.7:8080", "", ""},
		{"ipv6 host", "[::1]:8080", "", ""},
		{"hint wins over host", "other.medassist.io", "Sunrise", "sunrise"},
		{"reserved hint is global", "other.medassist.io", "www", ""},
		{"blank hint falls back to host", "other.medassist.io", "  ", "other"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Candidate(tc.host, tc.hint))
		})
	}
}

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	repo := memory.NewHospitalRepository()
	repo.Put(&hospital.Hospital{ID: "h1", Subdomain: "sunrise", Name: "Sunrise", Status: hospital.StatusActive})
	repo.Put(&hospital.Hospital{ID: "h2", Subdomain: "closed", Name: "Closed", Status: hospital.StatusSuspended})
	repo.Put(&hospital.Hospital{ID: "h3", Subdomain: "banned", Name: "Banned", Status: hospital.StatusBanned})
	return NewResolver(repo, nil)
}

func TestResolveDistinguishesGlobalNotFoundAndFound(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	res, err := r.Resolve(ctx, "medassist.io", "", "/v1/assessments/start")
	require.NoError(t, err)
	assert.True(t, res.Global())
	assert.False(t, res.NotFound())

	res, err = r.Resolve(ctx, "nowhere.medassist.io", "", "/v1/assessments/start")
	require.NoError(t, err)
	assert.False(t, res.Global())
	assert.True(t, res.NotFound())
	assert.Nil(t, res.Hospital)

	res, err = r.Resolve(ctx, "sunrise.medassist.io", "", "/v1/assessments/start")
	require.NoError(t, err)
	require.NotNil(t, res.Hospital)
	assert.Equal(t, "h1", res.Hospital.ID)
}

func TestResolveBlocksInactiveOutsidePublicPaths(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	for _, host := range []string{"closed.medassist.io", "banned.medassist.io"} {
		res, err := r.Resolve(ctx, host, "", "/v1/assessments/start")
		assert.ErrorIs(t, err, hospital.ErrInactive, host)
		assert.NotNil(t, res.Hospital, host)

		res, err = r.Resolve(ctx, host, "", "/health")
		assert.NoError(t, err, host)
		assert.NotNil(t, res.Hospital, host)

		_, err = r.Resolve(ctx, host, "", "/v1/public/hospital")
		assert.NoError(t, err, host)
	}
}

func TestIsPublic(t *testing.T) {
	r := NewResolver(nil, nil)
	assert.True(t, r.IsPublic("/health"))
	assert.True(t, r.IsPublic("/health/live"))
	assert.True(t, r.IsPublic("/v1/public"))
	assert.True(t, r.IsPublic("/v1/public/hospital"))
	assert.False(t, r.IsPublic("/healthz"))
	assert.False(t, r.IsPublic("/v1/assessments/start"))
}
