package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// dataPrefix marks the frames this protocol consumes; any other line
// (blank separators, SSE comments, foreign fields) is ignored.
const dataPrefix = "data: "

// ErrDecoderReused is returned when Decode is called more than once on the
// same Decoder. A byte stream is attached to at most one decode call; the
// protocol does not support re-subscribing to a stream already in progress.
var ErrDecoderReused = errors.New("wire: decoder already consumed its stream")

// DecodeCallbacks are invoked as the decoder makes progress. All callbacks
// are optional and are called from the goroutine driving Decode.
type DecodeCallbacks struct {
	// OnMetadata receives the conversation identifier from the chat_metadata
	// frame, when one arrives.
	OnMetadata func(id string)

	// OnContent receives the running total after each content frame. Totals
	// are strictly monotonically increasing in length and are delivered in
	// the order frames were read.
	OnContent func(total string)

	// OnError is invoked when the byte stream itself fails. The turn must
	// then be treated as failed, even though some content may already have
	// been shown.
	OnError func(err error)
}

// Decoder incrementally reassembles wire events from a byte stream. It
// buffers bytes across reads, so frames split at arbitrary boundaries —
// including mid-frame and mid-UTF-8-codepoint — decode identically to an
// unsplit stream: a multi-byte codepoint never contains a newline byte, so
// holding the tail after the last newline keeps every codepoint intact.
type Decoder struct {
	reader io.Reader
	used   atomic.Bool
}

// NewDecoder creates a Decoder over the given reader. The reader is consumed
// exactly once; create a new Decoder per stream.
func NewDecoder(reader io.Reader) *Decoder {
	return &Decoder{reader: reader}
}

// Decode consumes the byte stream to completion and returns the final
// accumulated content.
//
// Frame handling is deliberately tolerant: lines without the "data: " prefix
// are ignored, as is a frame whose payload fails to parse — one malformed
// frame must not abort the whole stream. The done frame is a no-op here;
// termination is detected from the underlying end-of-stream signal.
//
// On a read error the OnError callback fires and Decode returns an empty
// string with the error — the caller must treat the turn as failed, not as a
// successful empty turn. Cancelling the context abandons further processing
// without error, returning whatever was accumulated.
func (d *Decoder) Decode(ctx context.Context, callbacks DecodeCallbacks) (string, error) {
	if !d.used.CompareAndSwap(false, true) {
		return "", ErrDecoderReused
	}

	var total strings.Builder
	var carry []byte
	buffer := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			// Consumer stopped reading (e.g. navigated away): abandon
			// processing without error.
			return total.String(), nil
		}

		bytesRead, readErr := d.reader.Read(buffer)
		if bytesRead > 0 {
			carry = append(carry, buffer[:bytesRead]...)

			// Process every complete line; keep the tail for the next read.
			for {
				newlineIndex := bytes.IndexByte(carry, '\n')
				if newlineIndex < 0 {
					break
				}
				line := carry[:newlineIndex]
				carry = carry[newlineIndex+1:]
				d.handleLine(line, &total, callbacks)
			}
		}

		if readErr == io.EOF {
			// A trailing frame without a final newline is still processed.
			if len(carry) > 0 {
				d.handleLine(carry, &total, callbacks)
			}
			return total.String(), nil
		}
		if readErr != nil {
			err := fmt.Errorf("wire: stream read failed: %w", readErr)
			if callbacks.OnError != nil {
				callbacks.OnError(err)
			}
			return "", err
		}
	}
}

// handleLine processes one line of the stream. Unframed lines and malformed
// payloads are skipped silently; well-formed events are dispatched by type.
func (d *Decoder) handleLine(line []byte, total *strings.Builder, callbacks DecodeCallbacks) {
	text := strings.TrimSuffix(string(line), "\r")
	if !strings.HasPrefix(text, dataPrefix) {
		return
	}

	payload := strings.TrimSpace(strings.TrimPrefix(text, dataPrefix))
	if payload == "" {
		return
	}

	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		// Protocol tolerance: a single corrupted frame is dropped without
		// aborting accumulation of subsequent valid frames.
		return
	}

	switch event.Type {
	case EventChatMetadata:
		if event.ID != "" && callbacks.OnMetadata != nil {
			callbacks.OnMetadata(event.ID)
		}

	case EventContent:
		if event.Content != "" {
			total.WriteString(event.Content)
			if callbacks.OnContent != nil {
				callbacks.OnContent(total.String())
			}
		}

	default:
		// done and unknown types are no-ops; end of stream is signalled by
		// the transport, not by a frame.
	}
}
