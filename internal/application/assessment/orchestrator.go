package assessment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/ai"
	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

const defaultMaxTokens = 2048

// Input for one final assessment.
type Input struct {
	Hospital      *hospital.Hospital
	SymptomInput  string
	QAFlow        []domain.QA
	ActiveDoctors []*doctor.Doctor
}

// Outcome carries an unsaved report; ID, patient and user are set by the caller.
type Outcome struct {
	Provider       string
	Model          string
	AssistantIntro string
	Report         *domain.Report
	TokensUsed     int
}

// Orchestrator turns a symptom description into a validated report.
type Orchestrator struct {
	Providers ai.Selector
	Doctors   doctor.Repository
	MaxTokens int
	Logger    *zap.Logger
}

func NewOrchestrator(providers ai.Selector, doctors doctor.Repository, maxTokens int, logger *zap.Logger) *Orchestrator {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{Providers: providers, Doctors: doctors, MaxTokens: maxTokens, Logger: logger}
}

func (o *Orchestrator) Run(ctx context.Context, in Input) (*Outcome, error) {
	settings := SettingsFor(in.Hospital)
	provider, model, err := o.Providers.Select(settings.Provider, settings.Model)
	if err != nil {
		return nil, err
	}

	var roster []*doctor.Doctor
	if settings.Features.DoctorRecommendation {
		roster = in.ActiveDoctors
	}
	resp, err := provider.Generate(ctx, ai.Request{
		System:    AssessmentSystemPrompt(settings, roster),
		User:      AssessmentUserPrompt(in.SymptomInput, in.QAFlow),
		Model:     model,
		MaxTokens: o.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, providerError(provider.Name(), err)
	}

	parsed, err := ParseReport(resp.Text)
	if err != nil {
		o.Logger.Warn("assessment response rejected",
			zap.String("hospital_id", in.Hospital.ID),
			zap.String("provider", provider.Name()),
			zap.String("model", model),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.Model != "" {
		model = resp.Model
	}
	report := &domain.Report{
		HospitalID:   in.Hospital.ID,
		SymptomInput: in.SymptomInput,
		QAFlow:       in.QAFlow,
		Summary:      parsed.Summary,
		Conditions:   parsed.Conditions,
		RiskLevel:    parsed.RiskLevel,
		Tests:        parsed.Tests,
		DietPlan:     parsed.DietPlan,
		Avoid:        parsed.Avoid,
		HomeCare:     parsed.HomeCare,
		Provider:     provider.Name(),
		Model:        model,
		ModelInfo:    parsed.ModelInfo,
		Disclaimer:   domain.Disclaimer,
	}
	if report.QAFlow == nil {
		report.QAFlow = []domain.QA{}
	}
	if report.ModelInfo == "" {
		report.ModelInfo = provider.Name() + "/" + model
	}

	// prompt directives are hints; the toggles are enforced here
	if !settings.Features.DietPlan {
		report.DietPlan = []string{}
		report.Avoid = []string{}
	}
	if !settings.Features.TestSuggestions {
		report.Tests = []domain.TestSuggestion{}
	}
	if settings.Features.DoctorRecommendation && parsed.RecommendedDoctorID != "" {
		o.attachDoctor(ctx, report, parsed.RecommendedDoctorID)
	}

	intro := parsed.Intro
	if settings.IntroTemplate != "" || intro == "" {
		intro = settings.Intro()
	}

	tokens := resp.TokensUsed
	if tokens < 0 {
		tokens = 0
	}
	return &Outcome{
		Provider:       provider.Name(),
		Model:          model,
		AssistantIntro: intro,
		Report:         report,
		TokensUsed:     tokens,
	}, nil
}

// attachDoctor drops recommendations that do not resolve to an active doctor
// of the same hospital.
func (o *Orchestrator) attachDoctor(ctx context.Context, r *domain.Report, id string) {
	if o.Doctors == nil {
		return
	}
	d, err := o.Doctors.FindActive(ctx, r.HospitalID, id)
	if err != nil {
		lvl := o.Logger.Debug
		if !errors.Is(err, doctor.ErrNotFound) {
			lvl = o.Logger.Warn
		}
		lvl("recommended doctor dropped",
			zap.String("hospital_id", r.HospitalID),
			zap.String("doctor_id", id),
			zap.Error(err),
		)
		return
	}
	docID := d.ID
	r.RecommendedDoctorID = &docID
	r.RecommendedDoctor = &domain.DoctorSnapshot{
		Name:           d.Name,
		Qualification:  d.Qualification,
		Specialization: d.Specialization,
	}
}

// providerError keeps known ai errors and classifies the rest as provider failures.
func providerError(name string, err error) error {
	if errors.Is(err, ai.ErrQuotaExceeded) ||
		errors.Is(err, ai.ErrProviderNotConfigured) ||
		errors.Is(err, ai.ErrProviderFailed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", name, err)
	}
	return fmt.Errorf("%w: %s: %v", ai.ErrProviderFailed, name, err)
}
