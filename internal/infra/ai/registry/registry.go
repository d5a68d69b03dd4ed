package registry

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/medassist/internal/domain/ai"
)

// Hard-coded fallbacks, used when neither the hospital nor the environment
// names a model.
var fallbackModels = map[string]string{
	"openai": "gpt-4o-mini",
	"gemini": "gemini-1.5-flash",
}

// deprecated model ids are swapped for the provider's current default.
var deprecated = map[string]map[string]bool{
	"openai": {
		"gpt-3.5-turbo":        true,
		"gpt-3.5-turbo-16k":    true,
		"gpt-4-32k":            true,
		"gpt-4-vision-preview": true,
		"text-davinci-003":     true,
	},
	"gemini": {
		"gemini-pro":        true,
		"gemini-pro-vision": true,
		"gemini-1.0-pro":    true,
	},
}

// Registry holds the providers that have credentials and their default models.
type Registry struct {
	providers       map[string]ai.Provider
	models          map[string]string
	defaultProvider string
}

func New(defaultProvider string) *Registry {
	defaultProvider = strings.ToLower(strings.TrimSpace(defaultProvider))
	if defaultProvider == "" {
		defaultProvider = "openai"
	}
	return &Registry{
		providers:       map[string]ai.Provider{},
		models:          map[string]string{},
		defaultProvider: defaultProvider,
	}
}

// Register adds a provider with its environment/config default model.
func (r *Registry) Register(p ai.Provider, defaultModel string) {
	name := strings.ToLower(p.Name())
	r.providers[name] = p
	if m := strings.TrimSpace(defaultModel); m != "" {
		r.models[name] = m
	}
}

// SetDefaultModel records a default model for a provider that may not be
// registered, so Model() still resolves for it.
func (r *Registry) SetDefaultModel(provider, model string) {
	if m := strings.TrimSpace(model); m != "" {
		r.models[strings.ToLower(provider)] = m
	}
}

func (r *Registry) DefaultProvider() string { return r.defaultProvider }

// Select never falls back to a different provider than the one asked for.
func (r *Registry) Select(provider, model string) (ai.Provider, string, error) {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		name = r.defaultProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s (set %s_API_KEY)", ai.ErrProviderNotConfigured, name, strings.ToUpper(name))
	}
	return p, r.Model(name, model), nil
}

// Model resolves: override -> configured default -> fallback, then replaces
// deprecated ids.
func (r *Registry) Model(provider, override string) string {
	name := strings.ToLower(provider)
	m := strings.TrimSpace(override)
	if m == "" {
		m = r.models[name]
	}
	if m == "" {
		m = fallbackModels[name]
	}
	if deprecated[name][m] {
		if def := r.models[name]; def != "" && !deprecated[name][def] {
			return def
		}
		return fallbackModels[name]
	}
	return m
}
