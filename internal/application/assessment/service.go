package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/medassist/internal/application"
	"github.com/bryanwahyu/medassist/internal/application/quota"
	"github.com/bryanwahyu/medassist/internal/application/tenant"
	"github.com/bryanwahyu/medassist/internal/application/usage"
	domain "github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
	"github.com/bryanwahyu/medassist/internal/domain/identity"
	domusage "github.com/bryanwahyu/medassist/internal/domain/usage"
)

const (
	MaxSymptomRunes = 4000
	MaxQAFlow       = 10
	sideEffectWait  = 5 * time.Second
)

// Service implements the pre-assessment use-cases.
type Service struct {
	Ledger       *quota.Ledger
	Orchestrator *Orchestrator
	Followups    *FollowupController
	Reports      domain.Repository
	Doctors      doctor.Repository
	Usage        *usage.Recorder
	// Archive and Notifier are optional best-effort side effects.
	Archive  domain.Archive
	Notifier domain.Notifier
	Clock    application.Clock
	Logger   *zap.Logger
}

//
// ==== USE CASES ====
//

// StartCommand untuk final assessment
type StartCommand struct {
	Tenant       tenant.Resolution
	Actor        identity.Identity
	SymptomInput string
	QAFlow       []domain.QA
}

type StartResult struct {
	AssistantIntro string         `json:"assistantIntro"`
	Report         *domain.Report `json:"report"`
}

// FollowupCommand asks whether one more question is needed.
type FollowupCommand struct {
	Tenant       tenant.Resolution
	Actor        identity.Identity
	SymptomInput string
	QAFlow       []domain.QA
}

// Start runs a final assessment. Validation, membership and quota are checked
// before the provider is called; nothing is stored when the provider fails.
func (s *Service) Start(ctx context.Context, cmd StartCommand) (*StartResult, error) {
	h, err := s.authorize(cmd.Tenant, cmd.Actor)
	if err != nil {
		return nil, err
	}
	symptom, qa, err := validateInput(cmd.SymptomInput, cmd.QAFlow)
	if err != nil {
		return nil, err
	}
	if err := s.Ledger.Check(ctx, h); err != nil {
		return nil, err
	}

	out, err := s.Orchestrator.Run(ctx, Input{
		Hospital:      h,
		SymptomInput:  symptom,
		QAFlow:        qa,
		ActiveDoctors: s.roster(ctx, h),
	})
	if err != nil {
		return nil, err
	}

	r := out.Report
	r.ID = uuid.NewString()
	r.PatientID = cmd.Actor.Patient()
	r.UserID = cmd.Actor.UserID
	r.CreatedAt = s.now()
	if err := s.Reports.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.bookkeeping(ctx, h, cmd.Actor, out)
	s.sideEffects(ctx, r)

	return &StartResult{AssistantIntro: out.AssistantIntro, Report: r}, nil
}

// Followup decides the next conversational turn. The provider is not called
// when the hospital is over quota.
func (s *Service) Followup(ctx context.Context, cmd FollowupCommand) (Decision, error) {
	h, err := s.authorize(cmd.Tenant, cmd.Actor)
	if err != nil {
		return Decision{}, err
	}
	symptom, qa, err := validateInput(cmd.SymptomInput, cmd.QAFlow)
	if err != nil {
		return Decision{}, err
	}
	if err := s.Ledger.Check(ctx, h); err != nil {
		return Decision{}, err
	}
	return s.Followups.Next(ctx, h, symptom, qa)
}

// Report reads back a stored report of the resolved hospital. Patients only
// see their own reports.
func (s *Service) Report(ctx context.Context, res tenant.Resolution, actor identity.Identity, id string) (*domain.Report, error) {
	h, err := hospitalOf(res)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(identity.RoleSuperAdmin) && !actor.MemberOf(h.ID) {
		return nil, domain.ErrForbidden
	}
	r, err := s.Reports.Get(ctx, h.ID, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if actor.HasRole(identity.RolePatient) && r.PatientID != actor.Patient() {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (s *Service) authorize(res tenant.Resolution, actor identity.Identity) (*hospital.Hospital, error) {
	h, err := hospitalOf(res)
	if err != nil {
		return nil, err
	}
	if !actor.MemberOf(h.ID) {
		return nil, fmt.Errorf("%w: user does not belong to this hospital", domain.ErrForbidden)
	}
	return h, nil
}

func hospitalOf(res tenant.Resolution) (*hospital.Hospital, error) {
	if res.Global() {
		return nil, domain.ErrNoTenant
	}
	if res.NotFound() {
		return nil, domain.ErrHospitalNotFound
	}
	return res.Hospital, nil
}

func validateInput(symptom string, qa []domain.QA) (string, []domain.QA, error) {
	symptom = strings.TrimSpace(symptom)
	if symptom == "" {
		return "", nil, fmt.Errorf("%w: symptomInput is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(symptom) > MaxSymptomRunes {
		return "", nil, fmt.Errorf("%w: symptomInput exceeds %d characters", domain.ErrInvalidInput, MaxSymptomRunes)
	}
	if len(qa) > MaxQAFlow {
		return "", nil, fmt.Errorf("%w: qaFlow has more than %d entries", domain.ErrInvalidInput, MaxQAFlow)
	}
	out := make([]domain.QA, 0, len(qa))
	for i, t := range qa {
		q := strings.TrimSpace(t.Question)
		if q == "" {
			return "", nil, fmt.Errorf("%w: qaFlow[%d].question is required", domain.ErrInvalidInput, i)
		}
		out = append(out, domain.QA{Question: q, Answer: strings.TrimSpace(t.Answer)})
	}
	return symptom, out, nil
}

// roster degrades to no recommendation when the doctor list cannot be read.
func (s *Service) roster(ctx context.Context, h *hospital.Hospital) []*doctor.Doctor {
	if s.Doctors == nil || !SettingsFor(h).Features.DoctorRecommendation {
		return nil
	}
	list, err := s.Doctors.ListActive(ctx, h.ID)
	if err != nil {
		s.logger().Warn("doctor roster unavailable", zap.String("hospital_id", h.ID), zap.Error(err))
		return nil
	}
	return list
}

// bookkeeping runs after the report is stored. Its failures are logged only:
// the patient already has the report.
func (s *Service) bookkeeping(ctx context.Context, h *hospital.Hospital, actor identity.Identity, out *Outcome) {
	bctx := context.WithoutCancel(ctx)
	if err := s.Ledger.Commit(bctx, h); err != nil {
		lvl := s.logger().Error
		if errors.Is(err, quota.ErrLimitReached) {
			lvl = s.logger().Warn
		}
		lvl("quota commit failed",
			zap.String("hospital_id", h.ID),
			zap.String("report_id", out.Report.ID),
			zap.Error(err),
		)
	}
	if s.Usage != nil {
		s.Usage.Record(bctx, domusage.Entry{
			HospitalID: h.ID,
			UserID:     actor.UserID,
			PatientID:  actor.Patient(),
			Category:   domusage.CategoryAIAssessment,
			Provider:   out.Provider,
			Model:      out.Model,
			Tokens:     out.TokensUsed,
			Metadata: map[string]any{
				"report_id":       out.Report.ID,
				"risk_level":      string(out.Report.RiskLevel),
				"condition_count": len(out.Report.Conditions),
			},
		})
	}
}

func (s *Service) sideEffects(ctx context.Context, r *domain.Report) {
	if s.Archive == nil && s.Notifier == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectWait)
	defer cancel()

	if s.Archive != nil {
		if url, err := s.Archive.ArchiveReport(sctx, r); err != nil {
			s.logger().Warn("report archive failed", zap.String("report_id", r.ID), zap.Error(err))
		} else {
			s.logger().Debug("report archived", zap.String("report_id", r.ID), zap.String("url", url))
		}
	}
	if s.Notifier != nil {
		if err := s.Notifier.ReportCompleted(sctx, r); err != nil {
			s.logger().Warn("report notification failed", zap.String("report_id", r.ID), zap.Error(err))
		}
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
