package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leofalp/chatstream/providers/ai"
)

func TestRequestConversionHoistsSystemMessages(t *testing.T) {
	request := ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: "be brief"},
			{Role: ai.RoleUser, Content: "hi"},
			{Role: ai.RoleSystem, Content: "be kind"},
			{Role: ai.RoleAssistant, Content: "hello"},
		},
	}

	converted := requestToAnthropic(request, "claude-3-5-sonnet-latest")

	if converted.System != "be brief\nbe kind" {
		t.Errorf("System = %q, want newline-joined system messages", converted.System)
	}
	if len(converted.Messages) != 2 {
		t.Fatalf("messages length = %d, want 2 non-system turns", len(converted.Messages))
	}
	if converted.Messages[0].Role != "user" || converted.Messages[1].Role != "assistant" {
		t.Errorf("roles = %q, %q", converted.Messages[0].Role, converted.Messages[1].Role)
	}
	if converted.MaxTokens != ai.DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, must default since Anthropic requires it", converted.MaxTokens)
	}
}

func TestRequestConversionGenerationConfig(t *testing.T) {
	request := ai.ChatRequest{
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
		GenerationConfig: &ai.GenerationConfig{Temperature: 0.2, MaxTokens: 99},
	}

	converted := requestToAnthropic(request, "m")
	if converted.Temperature == nil || *converted.Temperature != 0.2 {
		t.Errorf("Temperature = %v", converted.Temperature)
	}
	if converted.MaxTokens != 99 {
		t.Errorf("MaxTokens = %d, want 99", converted.MaxTokens)
	}
}

func TestMapStopReason(t *testing.T) {
	tests := map[string]string{
		"end_turn":      "stop",
		"stop_sequence": "stop",
		"max_tokens":    "length",
		"refusal":       "content_filter",
		"tool_use":      "tool_use",
	}
	for raw, want := range tests {
		if got := mapStopReason(raw); got != want {
			t.Errorf("mapStopReason(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "ak-test" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("anthropic-version = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unexpected Authorization header %q", got)
		}

		response := anthropicResponse{
			ID:         "msg_01",
			Type:       "message",
			Role:       "assistant",
			Model:      "claude-3-5-sonnet-latest",
			Content:    []responseContentBlock{{Type: "text", Text: "po"}, {Type: "text", Text: "ng"}},
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 2, OutputTokens: 1},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	provider := New()
	provider.WithAPIKey("ak-test")
	provider.WithBaseURL(server.URL)

	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "ping"}},
	})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if response.Content != "pong" {
		t.Errorf("Content = %q, want concatenated text blocks", response.Content)
	}
	if response.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", response.FinishReason)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 3 {
		t.Errorf("usage = %+v", response.Usage)
	}
}

func TestStreamMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("streaming call did not set stream=true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`{"type":"message_start"}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
			`{"type":"ping"}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo!"}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
			`{"type":"message_stop"}`,
		}
		for _, event := range events {
			fmt.Fprintf(w, "data: %s\n\n", event)
		}
	}))
	defer server.Close()

	provider := New()
	provider.WithAPIKey("ak-test")
	provider.WithBaseURL(server.URL)

	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamMessage() error: %v", err)
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if response.Content != "Hello!" {
		t.Errorf("Content = %q, want %q", response.Content, "Hello!")
	}
	if response.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want normalised stop", response.FinishReason)
	}
}

func TestStreamMessageErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"par\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"overloaded\"}}\n\n")
	}))
	defer server.Close()

	provider := New()
	provider.WithAPIKey("ak-test")
	provider.WithBaseURL(server.URL)

	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamMessage() error: %v", err)
	}

	response, err := stream.Collect()
	if err == nil {
		t.Fatal("expected a mid-stream error from the error event")
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("error = %v, want the upstream message", err)
	}
	if response.Content != "par" {
		t.Errorf("partial content = %q, want %q", response.Content, "par")
	}
}
