package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/medassist/internal/application"
	appassessment "github.com/bryanwahyu/medassist/internal/application/assessment"
	"github.com/bryanwahyu/medassist/internal/application/plans"
	"github.com/bryanwahyu/medassist/internal/application/quota"
	"github.com/bryanwahyu/medassist/internal/application/tenant"
	appusage "github.com/bryanwahyu/medassist/internal/application/usage"
	"github.com/bryanwahyu/medassist/internal/domain/ai"
	"github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
	"github.com/bryanwahyu/medassist/internal/domain/identity"
	"github.com/bryanwahyu/medassist/internal/infra/ai/registry"
	"github.com/bryanwahyu/medassist/internal/infra/db/memory"
	"github.com/bryanwahyu/medassist/internal/middleware"
)

const finalReply = `{
  "intro": "Hello",
  "summary": "Probably a tension headache.",
  "conditions": [{"name": "Tension headache", "probability": "70%"}],
  "riskLevel": "low",
  "tests": [],
  "dietPlan": ["hydrate"],
  "avoid": ["screens late at night"],
  "homeCare": ["rest"],
  "recommendedDoctorId": "d1"
}`

type fakeProvider struct {
	mu   sync.Mutex
	text string
	err  error
}

func (p *fakeProvider) Name() string { return "openai" }

func (p *fakeProvider) Generate(context.Context, ai.Request) (ai.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return ai.Response{}, p.err
	}
	return ai.Response{Text: p.text, TokensUsed: 42}, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 30 * time.Second, nil
}

type testServer struct {
	handler   http.Handler
	auth      *middleware.Authenticator
	provider  *fakeProvider
	hospitals *memory.HospitalRepository
	usage     *memory.UsageRepository
}

func newTestServer(t *testing.T, limiter middleware.Limiter) *testServer {
	t.Helper()
	hospitals := memory.NewHospitalRepository()
	hospitals.Put(&hospital.Hospital{
		ID: "h1", Subdomain: "sunrise", Name: "Sunrise General", Status: hospital.StatusActive,
		MaxAIChecksPerMonth: 1,
		Assistant:           hospital.Assistant{Name: "Mira", Features: hospital.DefaultFeatures()},
	})
	hospitals.Put(&hospital.Hospital{ID: "h2", Subdomain: "closed", Name: "Closed Clinic", Status: hospital.StatusSuspended})
	doctors := memory.NewDoctorRepository()
	doctors.Put(&doctor.Doctor{ID: "d1", HospitalID: "h1", Name: "Dr. Lee", Specialization: "Neurology", Qualification: "MD", Status: doctor.StatusActive})

	provider := &fakeProvider{text: finalReply}
	providers := registry.New("openai")
	providers.Register(provider, "gpt-4o-mini")

	clock := application.FixedClock{T: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	ledger := quota.NewLedger(hospitals, clock, zap.NewNop())
	usageRepo := memory.NewUsageRepository()
	svc := &appassessment.Service{
		Ledger:       ledger,
		Orchestrator: appassessment.NewOrchestrator(providers, doctors, 0, zap.NewNop()),
		Followups:    appassessment.NewFollowupController(providers, 0),
		Reports:      memory.NewReportRepository(),
		Doctors:      doctors,
		Usage:        appusage.NewRecorder(usageRepo, clock, zap.NewNop()),
		Clock:        clock,
		Logger:       zap.NewNop(),
	}
	resolver := tenant.NewResolver(hospitals, nil)
	auth := &middleware.Authenticator{Secret: []byte("router-test"), Issuer: "medassist", Public: resolver.IsPublic}
	if limiter == nil {
		limiter = middleware.NewMemoryLimiter(100)
	}

	return &testServer{
		handler: NewRouter(Deps{
			Assessments:  svc,
			Plans:        &plans.Service{Hospitals: hospitals, Ledger: ledger, Logger: zap.NewNop()},
			Ledger:       ledger,
			Resolver:     resolver,
			Auth:         auth,
			StartLimiter: limiter,
			Logger:       zap.NewNop(),
		}),
		auth:      auth,
		provider:  provider,
		hospitals: hospitals,
		usage:     usageRepo,
	}
}

func (s *testServer) token(t *testing.T, id identity.Identity) string {
	t.Helper()
	tok, err := s.auth.Issue(id, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, host, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Host = host
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body), rec.Body.String())
	return body.Code
}

var (
	patient  = identity.Identity{UserID: "u1", Role: identity.RolePatient, HospitalID: "h1", PatientID: "p1"}
	patient2 = identity.Identity{UserID: "u2", Role: identity.RolePatient, HospitalID: "h1", PatientID: "p2"}
	admin    = identity.Identity{UserID: "a1", Role: identity.RoleHospitalAdmin, HospitalID: "h1"}
	outsider = identity.Identity{UserID: "a2", Role: identity.RoleHospitalAdmin, HospitalID: "h9"}
	root     = identity.Identity{UserID: "root", Role: identity.RoleSuperAdmin}
)

const sunrise = "sunrise.medassist.io"

func TestStartThenReadBack(t *testing.T) {
	s := newTestServer(t, nil)
	tok := s.token(t, patient)

	rec := s.do(t, http.MethodPost, sunrise, "/v1/assessments/start", tok, map[string]any{
		"symptomInput": "headache since this morning",
		"qaFlow":       []map[string]string{{"question": "Any fever?", "answer": "No"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res appassessment.StartResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.NotNil(t, res.Report)
	assert.NotEmpty(t, res.Report.ID)
	assert.Equal(t, "p1", res.Report.PatientID)
	assert.Equal(t, assessment.RiskLow, res.Report.RiskLevel)
	require.NotNil(t, res.Report.RecommendedDoctor)
	assert.Equal(t, "Dr. Lee", res.Report.RecommendedDoctor.Name)
	assert.Equal(t, assessment.Disclaimer, res.Report.Disclaimer)
	assert.Len(t, s.usage.Entries(), 1)

	path := "/v1/assessments/" + res.Report.ID
	rec = s.do(t, http.MethodGet, sunrise, path, tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, sunrise, path, s.token(t, patient2), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, sunrise, path, s.token(t, admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, sunrise, "/v1/assessments/../../etc", tok, nil)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestStartErrorMapping(t *testing.T) {
	s := newTestServer(t, nil)
	tok := s.token(t, patient)
	body := map[string]any{"symptomInput": "cough"}

	cases := []struct {
		name   string
		host   string
		token  string
		body   any
		status int
		code   string
	}{
		{"no token", sunrise, "", body, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"admin cannot start", sunrise, s.token(t, admin), body, http.StatusForbidden, "FORBIDDEN"},
		{"other hospital member", sunrise, s.token(t, identity.Identity{UserID: "u5", Role: identity.RolePatient, HospitalID: "h2"}), body, http.StatusForbidden, "FORBIDDEN"},
		{"global context", "medassist.io", tok, body, http.StatusBadRequest, "HOSPITAL_REQUIRED"},
		{"unknown hospital", "ghost.medassist.io", tok, body, http.StatusNotFound, "HOSPITAL_NOT_FOUND"},
		{"inactive hospital", "closed.medassist.io", tok, body, http.StatusForbidden, "HOSPITAL_INACTIVE"},
		{"malformed json", sunrise, tok, `{"symptomInput":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty symptoms", sunrise, tok, map[string]any{"symptomInput": "   "}, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tc.host, "/v1/assessments/start", tc.token, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
	assert.Empty(t, s.usage.Entries())
}

func TestStartLimitReached(t *testing.T) {
	s := newTestServer(t, nil)
	tok := s.token(t, patient)
	body := map[string]any{"symptomInput": "sore throat"}

	rec := s.do(t, http.MethodPost, sunrise, "/v1/assessments/start", tok, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, sunrise, "/v1/assessments/start", tok, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "AI_LIMIT_REACHED", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, sunrise, "/v1/assessments/followup", tok, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "AI_LIMIT_REACHED", errorCode(t, rec))
}

func TestStartProviderErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: slow down", ai.ErrQuotaExceeded), http.StatusTooManyRequests, "AI_QUOTA_EXCEEDED"},
		{fmt.Errorf("%w: bad key", ai.ErrProviderNotConfigured), http.StatusServiceUnavailable, "AI_NOT_CONFIGURED"},
		{fmt.Errorf("%w: 500", ai.ErrProviderFailed), http.StatusBadGateway, "ASSESSMENT_FAILED"},
	}
	for _, tc := range cases {
		s := newTestServer(t, nil)
		s.provider.err = tc.err
		rec := s.do(t, http.MethodPost, sunrise, "/v1/assessments/start", s.token(t, patient), map[string]any{"symptomInput": "dizzy"})
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.code, errorCode(t, rec))
	}

	s := newTestServer(t, nil)
	s.provider.text = "I am not JSON"
	rec := s.do(t, http.MethodPost, sunrise, "/v1/assessments/start", s.token(t, patient), map[string]any{"symptomInput": "dizzy"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "ASSESSMENT_FAILED", errorCode(t, rec))
}

func TestStartRateLimited(t *testing.T) {
	s := newTestServer(t, denyLimiter{})
	rec := s.do(t, http.MethodPost, sunrise, "/v1/assessments/start", s.token(t, patient), map[string]any{"symptomInput": "rash"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
}

func TestFollowup(t *testing.T) {
	s := newTestServer(t, nil)
	s.provider.text = `{"mode": "followup", "followupQuestion": "How long has it lasted?"}`

	rec := s.do(t, http.MethodPost, sunrise, "/v1/assessments/followup", s.token(t, patient), map[string]any{"symptomInput": "back pain"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var d map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
	assert.Equal(t, "followup", d["mode"])
	assert.Equal(t, "How long has it lasted?", d["followupQuestion"])
	assert.NotContains(t, d, "Provider")

	h, err := s.hospitals.FindByID(context.Background(), "h1")
	require.NoError(t, err)
	assert.Zero(t, h.AIChecksUsedThisMonth)
}

func TestUsage(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, sunrise, "/v1/hospital/usage", s.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snap quota.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, 1, snap.Max)
	assert.Zero(t, snap.Used)
	require.NotNil(t, snap.Remaining)
	assert.Equal(t, 1, *snap.Remaining)

	rec = s.do(t, http.MethodGet, sunrise, "/v1/hospital/usage", s.token(t, outsider), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, sunrise, "/v1/hospital/usage", s.token(t, root), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, sunrise, "/v1/hospital/usage", s.token(t, patient), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "medassist.io", "/v1/hospital/usage", s.token(t, root), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "HOSPITAL_REQUIRED", errorCode(t, rec))
}

func TestAssignPlan(t *testing.T) {
	s := newTestServer(t, nil)
	tok := s.token(t, root)

	rec := s.do(t, http.MethodPut, "medassist.io", "/v1/platform/hospitals/h1/plan", tok, map[string]any{"maxAiChecksPerMonth": 25})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.EqualValues(t, 25, out["max_ai_checks_per_month"])
	assert.NotNil(t, out["billing_period_end"])

	h, err := s.hospitals.FindByID(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, 25, h.MaxAIChecksPerMonth)

	cases := []struct {
		name   string
		host   string
		token  string
		path   string
		body   any
		status int
	}{
		{"tenant domain", sunrise, tok, "/v1/platform/hospitals/h1/plan", map[string]any{"maxAiChecksPerMonth": 5}, http.StatusForbidden},
		{"hospital admin", "medassist.io", s.token(t, admin), "/v1/platform/hospitals/h1/plan", map[string]any{"maxAiChecksPerMonth": 5}, http.StatusForbidden},
		{"missing field", "medassist.io", tok, "/v1/platform/hospitals/h1/plan", map[string]any{}, http.StatusBadRequest},
		{"negative cap", "medassist.io", tok, "/v1/platform/hospitals/h1/plan", map[string]any{"maxAiChecksPerMonth": -1}, http.StatusBadRequest},
		{"unknown hospital", "medassist.io", tok, "/v1/platform/hospitals/ghost/plan", map[string]any{"maxAiChecksPerMonth": 5}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, tc.host, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestPublicHospital(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, sunrise, "/v1/public/hospital", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "Sunrise General", out["name"])
	assert.Equal(t, "Mira", out["assistantName"])
	assert.Equal(t, true, out["active"])

	rec = s.do(t, http.MethodGet, "closed.medassist.io", "/v1/public/hospital", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, false, out["active"])

	rec = s.do(t, http.MethodGet, "ghost.medassist.io", "/v1/public/hospital", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	for _, p := range []string{"/health", "/health/live", "/health/ready", "/metrics"} {
		rec := s.do(t, http.MethodGet, "medassist.io", p, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", assessment.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{plans.ErrInvalidPlan, http.StatusBadRequest, "INVALID_INPUT"},
		{assessment.ErrNoTenant, http.StatusBadRequest, "HOSPITAL_REQUIRED"},
		{hospital.ErrNotFound, http.StatusNotFound, "HOSPITAL_NOT_FOUND"},
		{assessment.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{quota.ErrLimitReached, http.StatusForbidden, "AI_LIMIT_REACHED"},
		{hospital.ErrInactive, http.StatusForbidden, "HOSPITAL_INACTIVE"},
		{ai.Malformed("bad", "raw"), http.StatusBadGateway, "ASSESSMENT_FAILED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, code := classify(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}
