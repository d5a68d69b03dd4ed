package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appassessment "github.com/bryanwahyu/medassist/internal/application/assessment"
	"github.com/bryanwahyu/medassist/internal/application/plans"
	"github.com/bryanwahyu/medassist/internal/application/quota"
	"github.com/bryanwahyu/medassist/internal/application/tenant"
	"github.com/bryanwahyu/medassist/internal/domain/ai"
	"github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
	"github.com/bryanwahyu/medassist/internal/domain/identity"
	"github.com/bryanwahyu/medassist/internal/middleware"
)

// maxBodyBytes bounds request bodies; symptom text is capped far below this.
const maxBodyBytes = 64 << 10

type Deps struct {
	Assessments  *appassessment.Service
	Plans        *plans.Service
	Ledger       *quota.Ledger
	Resolver     *tenant.Resolver
	Auth         *middleware.Authenticator
	StartLimiter middleware.Limiter
	HealthChecks map[string]middleware.HealthChecker
	CORSOrigins  []string
	Logger       *zap.Logger
}

type Router struct {
	assessments *appassessment.Service
	plans       *plans.Service
	ledger      *quota.Ledger
	logger      *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{assessments: d.Assessments, plans: d.Plans, ledger: d.Ledger, logger: logger}
	mux := chi.NewRouter()

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", tenant.HintHeader},
		MaxAge:         300,
	}))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.Tenant(d.Resolver, logger))
	mux.Use(middleware.Logging(logger))

	mux.Get("/health", middleware.HealthHandler(d.HealthChecks))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Get("/v1/public/hospital", r.wrap(r.handlePublicHospital))

	mux.Group(func(rt chi.Router) {
		rt.Use(d.Auth.Authenticate)

		rt.Route("/v1/assessments", func(rt chi.Router) {
			rt.With(
				middleware.RequireRole(identity.RolePatient),
				middleware.RateLimit(d.StartLimiter, logger),
			).Post("/start", r.wrap(r.handleStart))
			rt.With(middleware.RequireRole(identity.RolePatient)).Post("/followup", r.wrap(r.handleFollowup))
			rt.Get("/{id}", r.wrap(r.handleGetReport))
		})

		rt.With(middleware.RequireRole(identity.RoleHospitalAdmin, identity.RoleSuperAdmin)).
			Get("/v1/hospital/usage", r.wrap(r.handleUsage))

		rt.With(middleware.RequireRole(identity.RoleSuperAdmin)).
			Put("/v1/platform/hospitals/{id}/plan", r.wrap(r.handleAssignPlan))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, code := classify(err)
			msg := err.Error()
			if status >= 500 {
				r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
				if status == http.StatusInternalServerError {
					msg = "internal error"
				}
			}
			middleware.WriteError(w, status, code, msg)
		}
	}
}

// classify maps domain errors onto HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, assessment.ErrInvalidInput), errors.Is(err, plans.ErrInvalidPlan), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, assessment.ErrNoTenant):
		return http.StatusBadRequest, "HOSPITAL_REQUIRED"
	case errors.Is(err, assessment.ErrHospitalNotFound), errors.Is(err, hospital.ErrNotFound):
		return http.StatusNotFound, "HOSPITAL_NOT_FOUND"
	case errors.Is(err, assessment.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, quota.ErrLimitReached):
		return http.StatusForbidden, "AI_LIMIT_REACHED"
	case errors.Is(err, hospital.ErrInactive):
		return http.StatusForbidden, "HOSPITAL_INACTIVE"
	case errors.Is(err, assessment.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, ai.ErrProviderNotConfigured):
		return http.StatusServiceUnavailable, "AI_NOT_CONFIGURED"
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "AI_QUOTA_EXCEEDED"
	case errors.Is(err, ai.ErrMalformedResponse), errors.Is(err, ai.ErrProviderFailed):
		return http.StatusBadGateway, "ASSESSMENT_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

var errBadRequest = errors.New("bad request")

type assessmentBody struct {
	SymptomInput string          `json:"symptomInput"`
	QAFlow       []assessment.QA `json:"qaFlow"`
}

func decode(w http.ResponseWriter, req *http.Request, dst any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func actor(req *http.Request) identity.Identity {
	id, _ := identity.FromContext(req.Context())
	return id
}

// POST /v1/assessments/start
// Body: {"symptomInput": "...", "qaFlow": [{"question": "...", "answer": "..."}]}
func (r *Router) handleStart(w http.ResponseWriter, req *http.Request) error {
	middleware.IncrementAssessments()
	var body assessmentBody
	if err := decode(w, req, &body); err != nil {
		return err
	}
	res, err := r.assessments.Start(req.Context(), appassessment.StartCommand{
		Tenant:       middleware.TenantFrom(req.Context()),
		Actor:        actor(req),
		SymptomInput: middleware.SanitizeString(body.SymptomInput),
		QAFlow:       body.QAFlow,
	})
	if err != nil {
		if errors.Is(err, quota.ErrLimitReached) {
			middleware.IncrementAssessmentsLimited()
		} else {
			middleware.IncrementAssessmentsFailed()
		}
		return err
	}
	middleware.WriteJSON(w, http.StatusCreated, res)
	return nil
}

// POST /v1/assessments/followup
func (r *Router) handleFollowup(w http.ResponseWriter, req *http.Request) error {
	middleware.IncrementFollowups()
	var body assessmentBody
	if err := decode(w, req, &body); err != nil {
		return err
	}
	d, err := r.assessments.Followup(req.Context(), appassessment.FollowupCommand{
		Tenant:       middleware.TenantFrom(req.Context()),
		Actor:        actor(req),
		SymptomInput: middleware.SanitizeString(body.SymptomInput),
		QAFlow:       body.QAFlow,
	})
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, d)
	return nil
}

// GET /v1/assessments/{id}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	rep, err := r.assessments.Report(req.Context(), middleware.TenantFrom(req.Context()), actor(req), id)
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, rep)
	return nil
}

// GET /v1/hospital/usage
func (r *Router) handleUsage(w http.ResponseWriter, req *http.Request) error {
	res := middleware.TenantFrom(req.Context())
	switch {
	case res.Global():
		return assessment.ErrNoTenant
	case res.NotFound():
		return assessment.ErrHospitalNotFound
	}
	who := actor(req)
	if !who.HasRole(identity.RoleSuperAdmin) && !who.MemberOf(res.Hospital.ID) {
		return assessment.ErrForbidden
	}
	snap, err := r.ledger.Usage(req.Context(), res.Hospital)
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, snap)
	return nil
}

// PUT /v1/platform/hospitals/{id}/plan
// Body: {"maxAiChecksPerMonth": 100}
func (r *Router) handleAssignPlan(w http.ResponseWriter, req *http.Request) error {
	if !middleware.TenantFrom(req.Context()).Global() {
		return fmt.Errorf("%w: plans are managed from the platform domain", assessment.ErrForbidden)
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	var body struct {
		MaxAIChecksPerMonth *int `json:"maxAiChecksPerMonth"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	if body.MaxAIChecksPerMonth == nil {
		return fmt.Errorf("%w: maxAiChecksPerMonth is required", errBadRequest)
	}
	h, err := r.plans.Assign(req.Context(), plans.AssignCommand{HospitalID: id, MaxAIChecksPerMonth: *body.MaxAIChecksPerMonth})
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"id":                        h.ID,
		"subdomain":                 h.Subdomain,
		"max_ai_checks_per_month":   h.MaxAIChecksPerMonth,
		"ai_checks_used_this_month": h.AIChecksUsedThisMonth,
		"billing_period_start":      h.BillingPeriodStart,
		"billing_period_end":        h.BillingPeriodEnd,
	})
	return nil
}

// GET /v1/public/hospital
func (r *Router) handlePublicHospital(w http.ResponseWriter, req *http.Request) error {
	res := middleware.TenantFrom(req.Context())
	switch {
	case res.Global():
		return assessment.ErrNoTenant
	case res.NotFound():
		return assessment.ErrHospitalNotFound
	}
	h := res.Hospital
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"subdomain":     h.Subdomain,
		"name":          h.Name,
		"status":        h.Status,
		"active":        h.IsActive(),
		"assistantName": appassessment.SettingsFor(h).AssistantName,
	})
	return nil
}
