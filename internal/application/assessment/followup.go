package assessment

import (
	"context"
	"strings"

	"github.com/samber/lo"

	domain "github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/ai"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

// DefaultMaxTurns caps the follow-up conversation.
const DefaultMaxTurns = 3

// Mode of a follow-up decision.
type Mode string

const (
	ModeFollowup Mode = "followup"
	ModeFinal    Mode = "final"
)

const (
	NoteTurnCap  = "follow-up limit reached, proceed to the final assessment"
	NoteRepeat   = "the assistant repeated a question, proceed to the final assessment"
	NoteEnough   = "the assistant has enough information"
	NoteLastTurn = "no further follow-up needed, proceed to the final assessment"
)

// Decision is the controller output for one turn.
type Decision struct {
	Mode             Mode    `json:"mode"`
	FollowupQuestion *string `json:"followupQuestion"`
	Note             string  `json:"note,omitempty"`
	Provider         string  `json:"-"`
	Model            string  `json:"-"`
	TokensUsed       int     `json:"-"`
}

func final(note string) Decision { return Decision{Mode: ModeFinal, Note: note} }

// FollowupController decides per turn whether to ask one more question. It
// keeps no state; the caller resubmits the full history every turn.
type FollowupController struct {
	Providers ai.Selector
	MaxTurns  int
	MaxTokens int
}

func NewFollowupController(providers ai.Selector, maxTurns int) *FollowupController {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &FollowupController{Providers: providers, MaxTurns: maxTurns, MaxTokens: 256}
}

func (c *FollowupController) Next(ctx context.Context, h *hospital.Hospital, symptomInput string, history []domain.QA) (Decision, error) {
	if len(history) >= c.MaxTurns {
		return final(NoteTurnCap), nil
	}

	settings := SettingsFor(h)
	provider, model, err := c.Providers.Select(settings.Provider, settings.Model)
	if err != nil {
		return Decision{}, err
	}
	resp, err := provider.Generate(ctx, ai.Request{
		System:    FollowupSystemPrompt(settings, c.MaxTurns),
		User:      FollowupUserPrompt(symptomInput, history),
		Model:     model,
		MaxTokens: c.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		return Decision{}, providerError(provider.Name(), err)
	}
	raw, err := parseFollowup(resp.Text)
	if err != nil {
		return Decision{}, err
	}

	d := c.decide(raw, history)
	d.Provider = provider.Name()
	d.Model = model
	d.TokensUsed = resp.TokensUsed
	return d, nil
}

func (c *FollowupController) decide(raw rawFollowup, history []domain.QA) Decision {
	question := raw.FollowupQuestion.String()
	if !strings.EqualFold(raw.Mode.String(), string(ModeFollowup)) || question == "" {
		note := raw.Note.String()
		if note == "" {
			note = NoteEnough
		}
		return final(note)
	}

	asked := lo.Map(history, func(t domain.QA, _ int) string { return normalizeQuestion(t.Question) })
	if lo.Contains(asked, normalizeQuestion(question)) {
		return final(NoteRepeat)
	}
	if len(history)+1 >= c.MaxTurns {
		return final(NoteLastTurn)
	}
	return Decision{Mode: ModeFollowup, FollowupQuestion: &question, Note: raw.Note.String()}
}

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
