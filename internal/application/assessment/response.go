package assessment

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	domain "github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/ai"
)

// ParsedReport is the provider reply after validation.
type ParsedReport struct {
	Intro               string
	Summary             string
	Conditions          []domain.Condition
	RiskLevel           domain.RiskLevel
	Tests               []domain.TestSuggestion
	DietPlan            []string
	Avoid               []string
	HomeCare            []string
	RecommendedDoctorID string
	ModelInfo           string
}

type rawReport struct {
	Intro               flexString     `json:"intro"`
	Summary             *flexString    `json:"summary"`
	Conditions          []rawCondition `json:"conditions"`
	RiskLevel           *flexString    `json:"riskLevel"`
	Tests               []rawTest      `json:"tests"`
	DietPlan            []flexString   `json:"dietPlan"`
	Avoid               []flexString   `json:"avoid"`
	HomeCare            []flexString   `json:"homeCare"`
	RecommendedDoctorID flexString     `json:"recommendedDoctorId"`
	ModelInfo           flexString     `json:"modelInfo"`
}

type rawCondition struct {
	Name        flexString      `json:"name"`
	Probability json.RawMessage `json:"probability"`
	Notes       flexString      `json:"notes"`
}

type rawTest struct {
	Name     flexString `json:"name"`
	Priority flexString `json:"priority"`
	Notes    flexString `json:"notes"`
}

// riskAliases maps wording models commonly use instead of the enum.
var riskAliases = map[string]domain.RiskLevel{
	"moderate": domain.RiskMedium,
	"severe":   domain.RiskHigh,
	"critical": domain.RiskHigh,
	"minimal":  domain.RiskLow,
}

// ParseReport validates a provider reply against the report schema. Any
// shape mismatch is an *ai.MalformedResponseError.
func ParseReport(text string) (*ParsedReport, error) {
	body, ok := extractJSONObject(text)
	if !ok {
		return nil, ai.Malformed("response is not a JSON object", text)
	}
	var raw rawReport
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, ai.Malformed("response does not match schema: "+err.Error(), text)
	}
	if raw.Summary == nil || raw.Summary.String() == "" {
		return nil, ai.Malformed("missing summary", text)
	}
	if raw.RiskLevel == nil {
		return nil, ai.Malformed("missing riskLevel", text)
	}
	risk, ok := parseRisk(raw.RiskLevel.String())
	if !ok {
		return nil, ai.Malformed("invalid riskLevel "+strconv.Quote(raw.RiskLevel.String()), text)
	}

	out := &ParsedReport{
		Intro:               raw.Intro.String(),
		Summary:             raw.Summary.String(),
		RiskLevel:           risk,
		Conditions:          []domain.Condition{},
		Tests:               []domain.TestSuggestion{},
		DietPlan:            nonEmpty(raw.DietPlan),
		Avoid:               nonEmpty(raw.Avoid),
		HomeCare:            nonEmpty(raw.HomeCare),
		RecommendedDoctorID: raw.RecommendedDoctorID.String(),
		ModelInfo:           raw.ModelInfo.String(),
	}
	for _, c := range raw.Conditions {
		if c.Name.String() == "" {
			continue
		}
		out.Conditions = append(out.Conditions, domain.Condition{
			Name:        c.Name.String(),
			Probability: probability(c.Probability),
			Notes:       c.Notes.String(),
		})
	}
	for _, t := range raw.Tests {
		if t.Name.String() == "" {
			continue
		}
		out.Tests = append(out.Tests, domain.TestSuggestion{
			Name:     t.Name.String(),
			Priority: domain.ParsePriority(t.Priority.String()),
			Notes:    t.Notes.String(),
		})
	}
	if strings.EqualFold(out.RecommendedDoctorID, "null") {
		out.RecommendedDoctorID = ""
	}
	return out, nil
}

type rawFollowup struct {
	Mode             flexString `json:"mode"`
	FollowupQuestion flexString `json:"followupQuestion"`
	Note             flexString `json:"note"`
}

func parseFollowup(text string) (rawFollowup, error) {
	var raw rawFollowup
	body, ok := extractJSONObject(text)
	if !ok {
		return raw, ai.Malformed("response is not a JSON object", text)
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return raw, ai.Malformed("response does not match schema: "+err.Error(), text)
	}
	return raw, nil
}

func parseRisk(s string) (domain.RiskLevel, bool) {
	r := domain.RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r, true
	}
	if alias, ok := riskAliases[string(r)]; ok {
		return alias, true
	}
	return "", false
}

// extractJSONObject strips code fences and surrounding prose.
func extractJSONObject(text string) ([]byte, bool) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	body := []byte(s[start : end+1])
	if !json.Valid(body) {
		return nil, false
	}
	return body, true
}

func nonEmpty(in []flexString) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// flexString accepts a JSON string, number, bool or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case 't', 'f':
		*f = flexString(b)
	default:
		n, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return err
		}
		*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
	}
	return nil
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }

// probability keeps strings as written and renders numbers as percentages:
// 0.6 -> "60%", 60 -> "60%".
func probability(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ""
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n > 0 && n <= 1 {
			n = math.Round(n * 100)
		}
		return strconv.FormatFloat(n, 'f', -1, 64) + "%"
	}
	var s flexString
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s.String()
}
