package assessment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

func TestSettingsDefaults(t *testing.T) {
	s := SettingsFor(&hospital.Hospital{Name: "  Sunrise  "})
	assert.Equal(t, DefaultAssistantName, s.AssistantName)
	assert.Equal(t, DefaultTone, s.Tone)
	assert.Equal(t, DefaultLanguage, s.Language)
	assert.Equal(t, "Sunrise", s.HospitalName)
	assert.Contains(t, s.Intro(), "Care Assistant")
	assert.Contains(t, s.Intro(), "Sunrise")
}

func TestRenderIntroKnowsTwoPlaceholders(t *testing.T) {
	got := RenderIntro("{{assistantName}} @ {{hospitalName}} {{patientName}}", "Mira", "Sunrise")
	assert.Equal(t, "Mira @ Sunrise {{patientName}}", got)
}

func TestAssessmentPromptThreadsToggles(t *testing.T) {
	h := testHospital()
	h.Assistant.Instructions = "Always mention our 24h hotline."
	h.Assistant.Features = hospital.Features{DietPlan: false, TestSuggestions: true, DoctorRecommendation: true}
	roster := []*doctor.Doctor{{ID: "d1", Name: "Dr. Lee", Specialization: "IM", Qualification: "MD", Expertise: []string{"fever"}}}

	p := AssessmentSystemPrompt(SettingsFor(h), roster)
	assert.Contains(t, p, "Mira")
	assert.Contains(t, p, "return dietPlan and avoid as empty arrays")
	assert.Contains(t, p, "tests lists diagnostic tests")
	assert.Contains(t, p, "id=d1 | Dr. Lee | IM | MD | expertise: fever")
	assert.Contains(t, p, "24h hotline")

	p = AssessmentSystemPrompt(SettingsFor(h), nil)
	assert.Contains(t, p, "return recommendedDoctorId as null")
	assert.False(t, strings.Contains(p, "Doctor roster"))
}
