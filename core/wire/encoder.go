package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/leofalp/chatstream/providers/ai"
)

// flusher matches http.Flusher and echo's response writer without importing
// net/http here.
type flusher interface {
	Flush()
}

// Encoder serialises wire events onto a byte stream, one frame per event,
// flushing after every frame so the transport's own flow control is the only
// buffering in play.
//
// Frames must not contain raw newlines; json.Marshal escapes any newline
// inside a content delta, so a frame is always a single line and is never
// split across frames.
type Encoder struct {
	writer  io.Writer
	flusher flusher
	total   strings.Builder
}

// NewEncoder creates an Encoder over the given writer. When the writer also
// implements Flush (http.ResponseWriter via http.Flusher, echo's Response),
// each frame is flushed as it is produced.
func NewEncoder(writer io.Writer) *Encoder {
	encoder := &Encoder{writer: writer}
	if f, ok := writer.(flusher); ok {
		encoder.flusher = f
	}
	return encoder
}

// writeEvent frames a single event as "data: <json>\n\n" and flushes it.
func (e *Encoder) writeEvent(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal wire event: %w", err)
	}
	if _, err := fmt.Fprintf(e.writer, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write wire frame: %w", err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

// Total returns the content accumulated so far.
func (e *Encoder) Total() string {
	return e.total.String()
}

// Pump drives a provider stream to completion, framing each non-empty content
// delta onto the wire in generation order. When chatID is non-empty a single
// chat_metadata frame is emitted first; a single done frame is emitted last
// on success, after which persist (if non-nil) is invoked once with the full
// accumulated text.
//
// If the provider stream yields an error, or the context is cancelled, the
// byte stream is aborted: no done frame is written and persist is never
// invoked — accumulated text from a failed turn is discarded, not persisted.
func (e *Encoder) Pump(ctx context.Context, chatID string, stream *ai.ChatStream, persist func(content string) error) error {
	if chatID != "" {
		if err := e.writeEvent(Event{Type: EventChatMetadata, ID: chatID}); err != nil {
			return err
		}
	}

	for event, err := range stream.Iter() {
		if err != nil {
			return fmt.Errorf("provider stream failed: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Only content deltas travel as frames; done and scaffolding events
		// from the provider are absorbed here — the wire has its own
		// completion marker.
		if event.Type == ai.StreamEventContent && event.Content != "" {
			e.total.WriteString(event.Content)
			if err := e.writeEvent(Event{Type: EventContent, Content: event.Content}); err != nil {
				return err
			}
		}
	}

	if err := e.writeEvent(Event{Type: EventDone}); err != nil {
		return err
	}

	if persist != nil {
		if err := persist(e.total.String()); err != nil {
			return fmt.Errorf("persist completed turn: %w", err)
		}
	}

	return nil
}
