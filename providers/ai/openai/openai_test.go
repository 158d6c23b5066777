package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/leofalp/chatstream/providers/ai"
)

func TestRequestConversionPreservesMessages(t *testing.T) {
	request := ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: "be brief"},
			{Role: ai.RoleUser, Content: "hi"},
			{Role: ai.RoleAssistant, Content: "hello"},
			{Role: ai.RoleUser, Content: "again"},
		},
	}

	converted := requestToChatCompletion(request, "gpt-4o-mini")
	if len(converted.Messages) != len(request.Messages) {
		t.Fatalf("message count changed: %d -> %d", len(request.Messages), len(converted.Messages))
	}
	for i, msg := range converted.Messages {
		if msg.Role != string(request.Messages[i].Role) || msg.Content != request.Messages[i].Content {
			t.Errorf("message %d = %+v, want relay of %+v", i, msg, request.Messages[i])
		}
	}
}

func TestNormalizeMessagesIsIdempotent(t *testing.T) {
	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: "s"},
		{Role: ai.RoleUser, Content: "u"},
	}
	once := normalizeMessages(messages)

	// The flat shape round-trips: normalizing the already-flat form changes
	// nothing.
	roundTripped := make([]ai.Message, len(once))
	for i, msg := range once {
		roundTripped[i] = ai.Message{Role: ai.MessageRole(msg.Role), Content: msg.Content}
	}
	twice := normalizeMessages(roundTripped)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalization is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestRequestConversionGenerationConfig(t *testing.T) {
	request := ai.ChatRequest{
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
		GenerationConfig: &ai.GenerationConfig{Temperature: 0.5, MaxTokens: 128},
	}

	converted := requestToChatCompletion(request, "gpt-4o-mini")
	if converted.Temperature == nil || *converted.Temperature != 0.5 {
		t.Errorf("Temperature = %v, want 0.5", converted.Temperature)
	}
	if converted.MaxTokens == nil || *converted.MaxTokens != 128 {
		t.Errorf("MaxTokens = %v, want 128", converted.MaxTokens)
	}

	unset := requestToChatCompletion(ai.ChatRequest{Messages: request.Messages}, "gpt-4o-mini")
	if unset.Temperature != nil || unset.MaxTokens != nil {
		t.Errorf("unset config must not be sent: %+v", unset)
	}
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Stream != nil && *req.Stream {
			t.Error("non-streaming call sent stream=true")
		}

		response := chatCompletionResponse{
			ID:      "chatcmpl-123",
			Object:  "chat.completion",
			Model:   req.Model,
			Choices: []chatCompletionChoice{{Message: chatCompletionMessage{Role: "assistant", Content: "pong"}, FinishReason: "stop"}},
			Usage:   &chatCompletionUsage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	provider := New()
	provider.WithAPIKey("sk-test")
	provider.WithBaseURL(server.URL)

	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "ping"}},
	})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if response.Content != "pong" || response.FinishReason != "stop" {
		t.Errorf("response = %+v", response)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 4 {
		t.Errorf("usage = %+v", response.Usage)
	}
}

func TestSendMessageWithoutKey(t *testing.T) {
	provider := New()
	provider.WithAPIKey("")
	if _, err := provider.SendMessage(context.Background(), ai.ChatRequest{}); !errors.Is(err, ai.ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestStreamMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Stream == nil || !*req.Stream {
			t.Error("streaming call did not set stream=true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"id":"c1","choices":[{"delta":{"role":"assistant"}}]}`,
			`{"id":"c1","choices":[{"delta":{"content":"Hel"}}]}`,
			`{"id":"c1","choices":[{"delta":{"content":""}}]}`,
			`{"id":"c1","choices":[{"delta":{"content":"lo!"}}]}`,
			`{"id":"c1","choices":[{"delta":{},"finish_reason":"stop"}]}`,
			"[DONE]",
		}
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
	}))
	defer server.Close()

	provider := New()
	provider.WithAPIKey("sk-test")
	provider.WithBaseURL(server.URL)

	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamMessage() error: %v", err)
	}

	var deltas []string
	finishReason := ""
	for event, iterErr := range stream.Iter() {
		if iterErr != nil {
			t.Fatalf("stream error: %v", iterErr)
		}
		switch event.Type {
		case ai.StreamEventContent:
			deltas = append(deltas, event.Content)
		case ai.StreamEventDone:
			finishReason = event.FinishReason
		}
	}

	// Role-only and empty-content ticks are dropped, not emitted.
	if strings.Join(deltas, "|") != "Hel|lo!" {
		t.Errorf("deltas = %v, want [Hel lo!]", deltas)
	}
	if finishReason != "stop" {
		t.Errorf("finish reason = %q, want stop", finishReason)
	}
}

func TestStreamMessagePreStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := New()
	provider.WithAPIKey("sk-bad")
	provider.WithBaseURL(server.URL)

	if _, err := provider.StreamMessage(context.Background(), ai.ChatRequest{}); err == nil {
		t.Fatal("expected a pre-stream error for a non-2xx response")
	}
}
