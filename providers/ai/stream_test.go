package ai

import (
	"errors"
	"testing"
)

func TestCollectAccumulatesDeltas(t *testing.T) {
	stream := NewChatStream(func(yield func(StreamEvent, error) bool) {
		deltas := []string{"Hel", "lo, ", "world!"}
		for _, delta := range deltas {
			if !yield(StreamEvent{Type: StreamEventContent, Content: delta}, nil) {
				return
			}
		}
		yield(StreamEvent{Type: StreamEventDone, FinishReason: "stop"}, nil)
	})

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}
	if response.Content != "Hello, world!" {
		t.Errorf("Content = %q, want %q", response.Content, "Hello, world!")
	}
	if response.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want %q", response.FinishReason, "stop")
	}
}

func TestCollectReturnsPartialContentOnError(t *testing.T) {
	streamErr := errors.New("connection reset")
	stream := NewChatStream(func(yield func(StreamEvent, error) bool) {
		if !yield(StreamEvent{Type: StreamEventContent, Content: "partial "}, nil) {
			return
		}
		if !yield(StreamEvent{Type: StreamEventContent, Content: "text"}, nil) {
			return
		}
		yield(StreamEvent{}, streamErr)
	})

	response, err := stream.Collect()
	if !errors.Is(err, streamErr) {
		t.Fatalf("Collect() error = %v, want %v", err, streamErr)
	}
	if response.Content != "partial text" {
		t.Errorf("partial Content = %q, want %q", response.Content, "partial text")
	}
}

func TestSingleEventStream(t *testing.T) {
	stream := NewSingleEventStream(&ChatResponse{Content: "full response", FinishReason: "stop"})

	var events []StreamEvent
	for event, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		events = append(events, event)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != StreamEventContent || events[0].Content != "full response" {
		t.Errorf("first event = %+v, want content event", events[0])
	}
	if events[1].Type != StreamEventDone || events[1].FinishReason != "stop" {
		t.Errorf("second event = %+v, want done event", events[1])
	}
}

func TestSingleEventStreamEmptyContent(t *testing.T) {
	stream := NewSingleEventStream(&ChatResponse{FinishReason: "stop"})

	for event, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Type == StreamEventContent {
			t.Errorf("empty response must not produce a content event, got %+v", event)
		}
	}
}

func TestGenerationConfigWithDefaults(t *testing.T) {
	tests := []struct {
		name            string
		config          *GenerationConfig
		wantTemperature float64
		wantMaxTokens   int
	}{
		{"nil config", nil, DefaultTemperature, DefaultMaxTokens},
		{"zero config", &GenerationConfig{}, DefaultTemperature, DefaultMaxTokens},
		{"partial config", &GenerationConfig{Temperature: 1.2}, 1.2, DefaultMaxTokens},
		{"full config", &GenerationConfig{Temperature: 0.3, MaxTokens: 100}, 0.3, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.config.WithDefaults()
			if got.Temperature != tt.wantTemperature {
				t.Errorf("Temperature = %v, want %v", got.Temperature, tt.wantTemperature)
			}
			if got.MaxTokens != tt.wantMaxTokens {
				t.Errorf("MaxTokens = %v, want %v", got.MaxTokens, tt.wantMaxTokens)
			}
		})
	}
}

func TestParseProviderName(t *testing.T) {
	tests := []struct {
		raw    string
		want   ProviderName
		wantOk bool
	}{
		{"openai", ProviderOpenAI, true},
		{"gemini", ProviderGemini, true},
		{"claude", ProviderAnthropic, true},
		{"", "", false},
		{"anthropic", "", false},
		{"OpenAI", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseProviderName(tt.raw)
		if got != tt.want || ok != tt.wantOk {
			t.Errorf("ParseProviderName(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOk)
		}
	}
}
