package ai

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to generate one assistant turn.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier; empty uses the provider default
	Messages         []Message         `json:"messages"`                    // Full conversation prefix, system messages included
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation configuration
}

// Message represents a single message in a conversation. Role alternation is
// not validated here; malformed sequences are relayed as-is and may be
// rejected by the upstream provider.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
}

// GenerationConfig carries sampling parameters. Values are passed
// uninterpreted to the provider, mapped to its native parameter names.
type GenerationConfig struct {
	Temperature float64 `json:"temperature,omitempty"` // Sampling temperature [0..2]. Higher => more random; lower => more deterministic.
	MaxTokens   int     `json:"max_tokens,omitempty"`  // Maximum tokens for the generated turn
}

// Default generation parameters, applied by callers when the request leaves
// the corresponding field unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
)

// WithDefaults returns a copy of the config with unset fields filled in.
// A nil receiver yields the full default configuration.
func (c *GenerationConfig) WithDefaults() GenerationConfig {
	result := GenerationConfig{Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens}
	if c == nil {
		return result
	}
	if c.Temperature > 0 {
		result.Temperature = c.Temperature
	}
	if c.MaxTokens > 0 {
		result.MaxTokens = c.MaxTokens
	}
	return result
}

/*
	##### PROVIDER OUTPUT #####
*/

// ChatResponse represents the completed response from a chat generation.
type ChatResponse struct {
	Id           string `json:"id"`
	Model        string `json:"model"`
	Object       string `json:"object"`
	Created      int64  `json:"created"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
)

// ProviderName identifies one of the supported completion backends.
// The set is closed; selection happens once per request before any
// adapter call.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderGemini    ProviderName = "gemini"
	ProviderAnthropic ProviderName = "claude"
)

// AllProviders lists every supported provider in fixed priority order.
// Credential-based auto-detection walks this slice front to back.
var AllProviders = []ProviderName{ProviderOpenAI, ProviderGemini, ProviderAnthropic}

// ParseProviderName validates a raw provider string against the closed
// enumeration. The second return value reports whether the input was a
// recognised member.
func ParseProviderName(raw string) (ProviderName, bool) {
	switch ProviderName(raw) {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
		return ProviderName(raw), true
	}
	return "", false
}
