// Package registry selects and constructs completion backends from
// configuration. It owns the provider resolution policy: an explicit
// per-request override always wins, then the configured default, then the
// first provider with a credential in fixed priority order, then OpenAI as
// the hard fallback.
package registry

import (
	"fmt"

	"github.com/leofalp/chatstream/internal/config"
	"github.com/leofalp/chatstream/providers/ai"
	"github.com/leofalp/chatstream/providers/ai/anthropic"
	"github.com/leofalp/chatstream/providers/ai/gemini"
	"github.com/leofalp/chatstream/providers/ai/openai"
)

// Registry resolves provider names and constructs configured adapter
// instances. It holds only read-only settings, so a single Registry is safe
// to share across concurrent requests; every Dial call returns a fresh
// adapter owned by that request.
type Registry struct {
	settings config.Settings
}

// New creates a Registry over the given settings.
func New(settings config.Settings) *Registry {
	return &Registry{settings: settings}
}

// Resolve picks the backend for one request. Resolution is deterministic for
// a fixed override and configuration:
//
//  1. A valid explicit override is returned unchanged, even when its
//     credential is absent — callers validate availability separately.
//  2. Otherwise the configured default provider, when valid.
//  3. Otherwise the first provider with a configured credential, in the
//     fixed priority order openai, gemini, claude.
//  4. Otherwise OpenAI, even with no credential; dispatch will then fail
//     with a configuration error before any network call.
func (r *Registry) Resolve(override string) ai.ProviderName {
	if name, ok := ai.ParseProviderName(override); ok {
		return name
	}

	if name, ok := ai.ParseProviderName(r.settings.DefaultProvider); ok {
		return name
	}

	for _, name := range ai.AllProviders {
		if r.settings.Provider(name).APIKey != "" {
			return name
		}
	}

	return ai.ProviderOpenAI
}

// Available lists every provider whose credential is configured, in fixed
// priority order. Duplicates are impossible by construction.
func (r *Registry) Available() []ai.ProviderName {
	var available []ai.ProviderName
	for _, name := range ai.AllProviders {
		if r.settings.Provider(name).APIKey != "" {
			available = append(available, name)
		}
	}
	return available
}

// Dial constructs a configured adapter for the named provider. It returns a
// wrapped [ai.ErrMissingAPIKey] when no credential is configured, before any
// network activity.
func (r *Registry) Dial(name ai.ProviderName) (ai.StreamProvider, error) {
	settings := r.settings.Provider(name)
	if settings.APIKey == "" {
		return nil, fmt.Errorf("provider %s: %w", name, ai.ErrMissingAPIKey)
	}

	switch name {
	case ai.ProviderGemini:
		provider := gemini.New().WithModel(settings.Model)
		provider.WithAPIKey(settings.APIKey)
		if settings.BaseURL != "" {
			provider.WithBaseURL(settings.BaseURL)
		}
		return provider, nil

	case ai.ProviderAnthropic:
		provider := anthropic.New().WithModel(settings.Model)
		provider.WithAPIKey(settings.APIKey)
		if settings.BaseURL != "" {
			provider.WithBaseURL(settings.BaseURL)
		}
		return provider, nil

	case ai.ProviderOpenAI:
		provider := openai.New().WithModel(settings.Model)
		provider.WithAPIKey(settings.APIKey)
		if settings.BaseURL != "" {
			provider.WithBaseURL(settings.BaseURL)
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
