package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leofalp/chatstream/providers/ai"
)

// Settings is the read-only configuration for one process. It is loaded once
// at startup and threaded explicitly into the components that need it, so
// provider resolution never reads ambient process state at call time.
type Settings struct {
	Server    ServerSettings    `yaml:"server"`
	Providers ProvidersSettings `yaml:"providers"`

	// DefaultProvider overrides the credential-based auto-detection when it
	// names a valid provider. Invalid values are ignored at resolution time.
	DefaultProvider string `yaml:"default_provider"`
}

// ServerSettings defines listener configuration.
type ServerSettings struct {
	Addr string `yaml:"addr"`
}

// ProvidersSettings catalogues the configured completion backends.
type ProvidersSettings struct {
	OpenAI    ProviderSettings `yaml:"openai"`
	Gemini    ProviderSettings `yaml:"gemini"`
	Anthropic ProviderSettings `yaml:"claude"`
}

// ProviderSettings captures credential and model info for one backend.
// A provider counts as available exactly when APIKey is non-empty.
type ProviderSettings struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Provider returns the settings block for the named backend.
func (s Settings) Provider(name ai.ProviderName) ProviderSettings {
	switch name {
	case ai.ProviderGemini:
		return s.Providers.Gemini
	case ai.ProviderAnthropic:
		return s.Providers.Anthropic
	default:
		return s.Providers.OpenAI
	}
}

// Load builds Settings from an optional YAML file overlaid with environment
// variables. The environment always wins, so credentials can stay out of the
// config file. An empty path skips the file entirely.
func Load(path string) (Settings, error) {
	settings := Settings{
		Server: ServerSettings{Addr: ":8080"},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Settings{}, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	settings.applyEnv()
	return settings, nil
}

// FromEnv builds Settings from environment variables alone.
func FromEnv() Settings {
	settings := Settings{
		Server: ServerSettings{Addr: ":8080"},
	}
	settings.applyEnv()
	return settings
}

func (s *Settings) applyEnv() {
	overlay(&s.Server.Addr, "CHATSTREAM_ADDR")
	overlay(&s.DefaultProvider, "CHATSTREAM_DEFAULT_PROVIDER")

	overlay(&s.Providers.OpenAI.APIKey, "OPENAI_API_KEY")
	overlay(&s.Providers.OpenAI.BaseURL, "OPENAI_API_BASE_URL")
	overlay(&s.Providers.OpenAI.Model, "OPENAI_MODEL")

	overlay(&s.Providers.Gemini.APIKey, "GEMINI_API_KEY")
	overlay(&s.Providers.Gemini.BaseURL, "GEMINI_API_BASE_URL")
	overlay(&s.Providers.Gemini.Model, "GEMINI_MODEL")

	overlay(&s.Providers.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	overlay(&s.Providers.Anthropic.BaseURL, "ANTHROPIC_API_BASE_URL")
	overlay(&s.Providers.Anthropic.Model, "ANTHROPIC_MODEL")
}

// overlay replaces *target with the environment value when the variable is
// set and non-empty.
func overlay(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
