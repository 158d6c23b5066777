// Package wire implements the event protocol that carries one streamed chat
// turn over an HTTP response body. The producer side frames typed events as
// text/event-stream data lines; the consumer side reassembles them
// incrementally across arbitrary chunk boundaries.
//
// Wire format, one JSON object per frame:
//
//	data: {"type":"chat_metadata","id":"<string>"}   (at most one, first)
//	data: {"type":"content","content":"<delta>"}     (zero or more)
//	data: {"type":"done"}                            (exactly one, on success)
//
// Content frames carry only the delta for that increment; the decoder exposes
// the running total to its caller.
package wire

// EventType discriminates the wire event union.
type EventType string

const (
	// EventChatMetadata carries the durable conversation identifier. It is
	// emitted at most once, as the first frame, when the identifier is
	// already known at stream start.
	EventChatMetadata EventType = "chat_metadata"
	// EventContent carries one text delta.
	EventContent EventType = "content"
	// EventDone marks successful completion. It is always the last frame on
	// success and never appears on an aborted stream.
	EventDone EventType = "done"
)

// Event is one frame of the wire protocol.
type Event struct {
	Type    EventType `json:"type"`
	ID      string    `json:"id,omitempty"`      // For EventChatMetadata
	Content string    `json:"content,omitempty"` // For EventContent
}
