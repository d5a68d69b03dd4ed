package assessment

import (
	"context"
	"sync"
	"testing"

	"github.com/bryanwahyu/medassist/internal/domain/ai"
	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
	"github.com/bryanwahyu/medassist/internal/infra/ai/registry"
	"github.com/bryanwahyu/medassist/internal/infra/db/memory"
)

// scriptedProvider returns replies in order and records every request.
type scriptedProvider struct {
	name    string
	mu      sync.Mutex
	replies []ai.Response
	err     error
	calls   []ai.Request
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Generate(_ context.Context, req ai.Request) (ai.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req)
	if p.err != nil {
		return ai.Response{}, p.err
	}
	if len(p.replies) == 0 {
		return ai.Response{}, nil
	}
	r := p.replies[0]
	if len(p.replies) > 1 {
		p.replies = p.replies[1:]
	}
	return r, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func reply(text string, tokens int) ai.Response { return ai.Response{Text: text, TokensUsed: tokens} }

func newRegistry(p *scriptedProvider) *registry.Registry {
	r := registry.New("openai")
	r.Register(p, "gpt-4o-mini")
	return r
}

func testHospital() *hospital.Hospital {
	return &hospital.Hospital{
		ID:                  "h1",
		Subdomain:           "sunrise",
		Name:                "Sunrise General",
		Status:              hospital.StatusActive,
		MaxAIChecksPerMonth: 10,
		Assistant: hospital.Assistant{
			Name:     "Mira",
			Features: hospital.DefaultFeatures(),
		},
	}
}

func seedDoctors(t *testing.T) *memory.DoctorRepository {
	t.Helper()
	repo := memory.NewDoctorRepository()
	repo.Put(&doctor.Doctor{ID: "d1", HospitalID: "h1", Name: "Dr. Lee", Specialization: "Internal Medicine", Qualification: "MD", Status: doctor.StatusActive})
	repo.Put(&doctor.Doctor{ID: "d2", HospitalID: "h1", Name: "Dr. Old", Specialization: "Cardiology", Qualification: "MD", Status: doctor.StatusInactive})
	repo.Put(&doctor.Doctor{ID: "d3", HospitalID: "h2", Name: "Dr. Elsewhere", Specialization: "Neurology", Qualification: "MD", Status: doctor.StatusActive})
	return repo
}

const validReport = `{
  "intro": "Hi there",
  "summary": "Likely a viral upper respiratory infection.",
  "conditions": [{"name": "Common cold", "probability": 0.6, "notes": "seasonal"}],
  "riskLevel": "low",
  "tests": [{"name": "CBC", "priority": "low"}],
  "dietPlan": ["warm fluids"],
  "avoid": ["alcohol"],
  "homeCare": ["rest"],
  "recommendedDoctorId": "d1"
}`
