package assessment

import (
	"strings"

	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

const (
	DefaultAssistantName = "Care Assistant"
	DefaultTone          = "warm, calm and professional"
	DefaultLanguage      = "English"
	DefaultIntroTemplate = "Hello, I'm {{assistantName}}, the virtual pre-assessment assistant at {{hospitalName}}. " +
		"I'll ask about your symptoms and prepare a short summary for our doctors."
)

// Settings is the hospital assistant configuration with defaults applied.
type Settings struct {
	HospitalName  string
	AssistantName string
	Tone          string
	Language      string
	Instructions  string
	StyleNotes    string
	IntroTemplate string
	// Provider and Model stay empty when the hospital has no override; the
	// ai.Selector fills in system defaults.
	Provider string
	Model    string
	Features hospital.Features
}

func SettingsFor(h *hospital.Hospital) Settings {
	a := h.Assistant
	return Settings{
		HospitalName:  strings.TrimSpace(h.Name),
		AssistantName: orDefault(a.Name, DefaultAssistantName),
		Tone:          orDefault(a.Tone, DefaultTone),
		Language:      orDefault(a.Language, DefaultLanguage),
		Instructions:  strings.TrimSpace(a.Instructions),
		StyleNotes:    strings.TrimSpace(a.StyleNotes),
		IntroTemplate: strings.TrimSpace(a.IntroTemplate),
		Provider:      strings.ToLower(strings.TrimSpace(a.Provider)),
		Model:         strings.TrimSpace(a.Model),
		Features:      a.Features,
	}
}

// Intro renders the greeting. Only {{assistantName}} and {{hospitalName}}
// are recognized; anything else is left as written.
func (s Settings) Intro() string {
	tpl := s.IntroTemplate
	if tpl == "" {
		tpl = DefaultIntroTemplate
	}
	return RenderIntro(tpl, s.AssistantName, s.HospitalName)
}

func RenderIntro(tpl, assistantName, hospitalName string) string {
	return strings.NewReplacer(
		"{{assistantName}}", assistantName,
		"{{hospitalName}}", hospitalName,
	).Replace(tpl)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
