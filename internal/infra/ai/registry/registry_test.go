package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medassist/internal/domain/ai"
)

type stubProvider string

func (s stubProvider) Name() string { return string(s) }

func (s stubProvider) Generate(context.Context, ai.Request) (ai.Response, error) {
	return ai.Response{}, nil
}

func TestSelectPrecedence(t *testing.T) {
	r := New("")
	r.Register(stubProvider("openai"), "gpt-4.1-mini")
	r.Register(stubProvider("gemini"), "")

	p, model, err := r.Select("", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4.1-mini", model)

	_, model, err = r.Select("OpenAI", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", model)

	p, model, err = r.Select("gemini", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, "gemini-1.5-flash", model)
}

func TestSelectNeverFallsBackToAnotherProvider(t *testing.T) {
	r := New("gemini")
	r.Register(stubProvider("openai"), "")

	_, _, err := r.Select("", "")
	assert.ErrorIs(t, err, ai.ErrProviderNotConfigured)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	_, _, err = r.Select("anthropic", "")
	assert.ErrorIs(t, err, ai.ErrProviderNotConfigured)
}

func TestDeprecatedModelsAreSubstituted(t *testing.T) {
	r := New("openai")
	assert.Equal(t, "gpt-4o-mini", r.Model("openai", "gpt-3.5-turbo"))
	assert.Equal(t, "gemini-1.5-flash", r.Model("gemini", "gemini-pro"))

	r.SetDefaultModel("openai", "gpt-4.1")
	assert.Equal(t, "gpt-4.1", r.Model("openai", "text-davinci-003"))

	r.SetDefaultModel("gemini", "gemini-1.0-pro")
	assert.Equal(t, "gemini-1.5-flash", r.Model("gemini", ""))
}
