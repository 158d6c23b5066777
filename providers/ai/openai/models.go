package openai

import (
	"encoding/json"
	"fmt"
)

/*
	OPENAI CHAT COMPLETIONS API - WIRE TYPES
*/

// chatCompletionRequest is the request body for /chat/completions.
type chatCompletionRequest struct {
	Model         string                  `json:"model"`
	Messages      []chatCompletionMessage `json:"messages"`
	Temperature   *float64                `json:"temperature,omitempty"`
	MaxTokens     *int                    `json:"max_completion_tokens,omitempty"`
	Stream        *bool                   `json:"stream,omitempty"`
	StreamOptions *streamOptions          `json:"stream_options,omitempty"`
}

// chatCompletionMessage is one turn in the flat OpenAI message list.
type chatCompletionMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// streamOptions controls streaming behaviour; IncludeUsage requests a final
// usage chunk before the [DONE] sentinel.
type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// chatCompletionResponse is the response body for a non-streaming request.
type chatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   *chatCompletionUsage   `json:"usage,omitempty"`
}

type chatCompletionChoice struct {
	Index        int                   `json:"index"`
	Message      chatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type chatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

/*
	OPENAI SSE STREAMING - WIRE TYPES
*/

// chatCompletionStreamChunk is one SSE payload of a streaming response.
// Content arrives as true deltas in Choices[].Delta; the final chunk may
// carry Usage with empty choices when stream_options.include_usage is set.
type chatCompletionStreamChunk struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"`
	Created int64                `json:"created"`
	Model   string               `json:"model"`
	Choices []streamChoice       `json:"choices"`
	Usage   *chatCompletionUsage `json:"usage,omitempty"`
}

type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// streamDelta carries the incremental fields of one streaming tick. Role is
// only present on the first chunk; content may be absent on scaffolding
// ticks (role-only, finish-reason-only).
type streamDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// unmarshalStreamChunk parses a JSON payload string into a chatCompletionStreamChunk.
func unmarshalStreamChunk(payload string) (*chatCompletionStreamChunk, error) {
	var chunk chatCompletionStreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return nil, fmt.Errorf("invalid stream chunk: %w", err)
	}
	return &chunk, nil
}
