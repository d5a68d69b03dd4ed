package assessment

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	domain "github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/doctor"
)

const reportSchema = `{
  "intro": "<short greeting addressed to the patient>",
  "summary": "<string>",
  "conditions": [
    {"name": "<string>", "probability": "<low|medium|high or percentage>", "notes": "<string>"}
  ],
  "riskLevel": "<low|medium|high>",
  "tests": [
    {"name": "<string>", "priority": "<low|medium|high|urgent>", "notes": "<string>"}
  ],
  "dietPlan": ["<string>"],
  "avoid": ["<string>"],
  "homeCare": ["<string>"],
  "recommendedDoctorId": "<doctor id from the roster or null>",
  "modelInfo": "<optional string>"
}`

const followupSchema = `{
  "mode": "<followup|final>",
  "followupQuestion": "<one short question or null>",
  "note": "<optional string>"
}`

// AssessmentSystemPrompt gives strict directions and the JSON schema for the
// final report.
func AssessmentSystemPrompt(s Settings, doctors []*doctor.Doctor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the AI pre-assessment assistant of %s. ", s.AssistantName, s.HospitalName)
	b.WriteString("You help patients describe their symptoms before they see a doctor. ")
	b.WriteString("You do not diagnose; everything you write is advisory and will be reviewed by medical staff.\n\n")

	b.WriteString("You must produce one valid JSON object only (no markdown, no commentary, no code fences) that follows the schema below.\n\n")
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- Write every text field in %s.\n", s.Language)
	fmt.Fprintf(&b, "- Tone: %s.\n", s.Tone)
	b.WriteString("- summary and riskLevel are required. riskLevel must be one of: low, medium, high.\n")
	b.WriteString("- If symptoms suggest an emergency (chest pain, difficulty breathing, stroke signs, heavy bleeding), use riskLevel high and say so in the summary.\n")
	b.WriteString("- Keep list items short and practical.\n")

	if s.Features.DietPlan {
		b.WriteString("- dietPlan lists foods or drinks that may help; avoid lists things to avoid.\n")
	} else {
		b.WriteString("- Diet advice is disabled: return dietPlan and avoid as empty arrays.\n")
	}
	if s.Features.TestSuggestions {
		b.WriteString("- tests lists diagnostic tests a doctor may consider, each with a priority.\n")
	} else {
		b.WriteString("- Test suggestions are disabled: return tests as an empty array.\n")
	}
	if s.Features.DoctorRecommendation && len(doctors) > 0 {
		b.WriteString("- recommendedDoctorId must be the id of the single best matching doctor from the roster below, or null if none fits. Never invent ids.\n")
	} else {
		b.WriteString("- Doctor recommendation is disabled: return recommendedDoctorId as null.\n")
	}

	if s.Instructions != "" {
		b.WriteString("\nHospital instructions:\n")
		b.WriteString(s.Instructions)
		b.WriteString("\n")
	}
	if s.StyleNotes != "" {
		b.WriteString("\nStyle notes:\n")
		b.WriteString(s.StyleNotes)
		b.WriteString("\n")
	}
	if s.Features.DoctorRecommendation && len(doctors) > 0 {
		b.WriteString("\nDoctor roster:\n")
		b.WriteString(Roster(doctors))
		b.WriteString("\n")
	}

	b.WriteString("\nSchema (example with placeholder values):\n")
	b.WriteString(reportSchema)
	return b.String()
}

// AssessmentUserPrompt carries the patient's input and answered follow-ups.
func AssessmentUserPrompt(symptomInput string, qa []domain.QA) string {
	var b strings.Builder
	b.WriteString("Patient symptom description:\n")
	b.WriteString(symptomInput)
	b.WriteString("\n")
	if len(qa) > 0 {
		b.WriteString("\nFollow-up answers:\n")
		b.WriteString(transcript(qa))
	}
	b.WriteString("\nRespond with the JSON object per schema.")
	return b.String()
}

// FollowupSystemPrompt asks for at most one clarifying question.
func FollowupSystemPrompt(s Settings, maxTurns int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the AI pre-assessment assistant of %s. ", s.AssistantName, s.HospitalName)
	b.WriteString("Decide whether one more clarifying question would materially improve the pre-assessment.\n\n")
	b.WriteString("You must produce one valid JSON object only (no markdown, no commentary).\n\n")
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- Write the question in %s. Tone: %s.\n", s.Language, s.Tone)
	fmt.Fprintf(&b, "- At most %d questions are asked in total. Never repeat a question already asked.\n", maxTurns)
	b.WriteString("- Use mode \"followup\" with a single short question, or mode \"final\" with followupQuestion null when you have enough information.\n")
	if s.Instructions != "" {
		b.WriteString("\nHospital instructions:\n")
		b.WriteString(s.Instructions)
		b.WriteString("\n")
	}
	b.WriteString("\nSchema:\n")
	b.WriteString(followupSchema)
	return b.String()
}

func FollowupUserPrompt(symptomInput string, qa []domain.QA) string {
	var b strings.Builder
	b.WriteString("Patient symptom description:\n")
	b.WriteString(symptomInput)
	b.WriteString("\n")
	if len(qa) > 0 {
		b.WriteString("\nQuestions already asked:\n")
		b.WriteString(transcript(qa))
	}
	return b.String()
}

// Roster renders one doctor per line.
func Roster(doctors []*doctor.Doctor) string {
	lines := lo.Map(doctors, func(d *doctor.Doctor, _ int) string {
		line := fmt.Sprintf("- id=%s | %s | %s | %s", d.ID, d.Name, d.Specialization, d.Qualification)
		if len(d.Expertise) > 0 {
			line += " | expertise: " + strings.Join(d.Expertise, ", ")
		}
		return line
	})
	return strings.Join(lines, "\n")
}

func transcript(qa []domain.QA) string {
	var b strings.Builder
	for i, t := range qa {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, t.Question, t.Answer)
	}
	return b.String()
}
