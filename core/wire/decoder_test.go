package wire

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkedReader yields a fixed byte stream in caller-chosen chunk sizes, to
// exercise frame reassembly across arbitrary read boundaries.
type chunkedReader struct {
	data   []byte
	sizes  []int
	offset int
	step   int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}
	size := r.sizes[r.step%len(r.sizes)]
	r.step++
	if size > len(r.data)-r.offset {
		size = len(r.data) - r.offset
	}
	if size > len(p) {
		size = len(p)
	}
	n := copy(p, r.data[r.offset:r.offset+size])
	r.offset += n
	return n, nil
}

const sampleStream = "data: {\"type\":\"chat_metadata\",\"id\":\"a1b2c3d4-e5f6-7890-aaaa-bbbbccccdddd\"}\n\n" +
	"data: {\"type\":\"content\",\"content\":\"Hél\"}\n\n" +
	"data: {\"type\":\"content\",\"content\":\"lo wörld\"}\n\n" +
	"data: {\"type\":\"done\"}\n\n"

func TestDecodeChunkBoundaryEquivalence(t *testing.T) {
	// Every chunking of the same byte stream must produce identical results,
	// including splits mid-frame and mid-UTF-8-codepoint.
	chunkings := [][]int{
		{len(sampleStream)}, // unsplit
		{1},                 // byte at a time
		{2}, {3}, {7},
		{5, 1, 40}, // uneven mix
	}

	for _, sizes := range chunkings {
		reader := &chunkedReader{data: []byte(sampleStream), sizes: sizes}
		decoder := NewDecoder(reader)

		var gotID string
		var totals []string
		total, err := decoder.Decode(context.Background(), DecodeCallbacks{
			OnMetadata: func(id string) { gotID = id },
			OnContent:  func(running string) { totals = append(totals, running) },
		})
		if err != nil {
			t.Fatalf("chunks %v: Decode() error: %v", sizes, err)
		}
		if total != "Héllo wörld" {
			t.Errorf("chunks %v: total = %q, want %q", sizes, total, "Héllo wörld")
		}
		if gotID != "a1b2c3d4-e5f6-7890-aaaa-bbbbccccdddd" {
			t.Errorf("chunks %v: metadata id = %q", sizes, gotID)
		}
		if len(totals) != 2 || totals[0] != "Hél" || totals[1] != "Héllo wörld" {
			t.Errorf("chunks %v: running totals = %v", sizes, totals)
		}
	}
}

func TestDecodeRunningTotalsAreMonotonic(t *testing.T) {
	reader := strings.NewReader(sampleStream)
	decoder := NewDecoder(reader)

	previous := ""
	_, err := decoder.Decode(context.Background(), DecodeCallbacks{
		OnContent: func(total string) {
			if len(total) <= len(previous) || !strings.HasPrefix(total, previous) {
				t.Errorf("total %q does not extend previous %q", total, previous)
			}
			previous = total
		},
	})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
}

func TestDecodeToleratesCorruptedAndForeignLines(t *testing.T) {
	stream := "data: {\"type\":\"content\",\"content\":\"keep\"}\n\n" +
		"data: {not json at all\n\n" +
		": sse comment line\n" +
		"event: something\n" +
		"data: \n\n" +
		"data: {\"type\":\"content\",\"content\":\" going\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"

	decoder := NewDecoder(strings.NewReader(stream))
	total, err := decoder.Decode(context.Background(), DecodeCallbacks{})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if total != "keep going" {
		t.Errorf("total = %q, want %q", total, "keep going")
	}
}

func TestDecodeDoneFrameIsNoOp(t *testing.T) {
	// Content after a done frame still accumulates: termination comes from
	// the transport, not the frame.
	stream := "data: {\"type\":\"done\"}\n\n" +
		"data: {\"type\":\"content\",\"content\":\"late\"}\n\n"

	decoder := NewDecoder(strings.NewReader(stream))
	total, err := decoder.Decode(context.Background(), DecodeCallbacks{})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if total != "late" {
		t.Errorf("total = %q, want %q", total, "late")
	}
}

func TestDecodeTrailingFrameWithoutNewline(t *testing.T) {
	stream := "data: {\"type\":\"content\",\"content\":\"tail\"}"

	decoder := NewDecoder(strings.NewReader(stream))
	total, err := decoder.Decode(context.Background(), DecodeCallbacks{})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if total != "tail" {
		t.Errorf("total = %q, want %q", total, "tail")
	}
}

type failingReader struct {
	data []byte
	err  error
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		return copy(p, r.data), nil
	}
	return 0, r.err
}

func TestDecodeReadErrorFailsTheTurn(t *testing.T) {
	readErr := errors.New("connection reset by peer")
	reader := &failingReader{
		data: []byte("data: {\"type\":\"content\",\"content\":\"shown\"}\n\n"),
		err:  readErr,
	}

	var callbackErr error
	decoder := NewDecoder(reader)
	total, err := decoder.Decode(context.Background(), DecodeCallbacks{
		OnError: func(e error) { callbackErr = e },
	})
	if !errors.Is(err, readErr) {
		t.Fatalf("Decode() error = %v, want wrapped %v", err, readErr)
	}
	if total != "" {
		t.Errorf("failed turn returned content %q, want empty", total)
	}
	if !errors.Is(callbackErr, readErr) {
		t.Errorf("OnError received %v, want wrapped %v", callbackErr, readErr)
	}
}

func TestDecodeCancelledContextReturnsAccumulated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	reader := &chunkedReader{data: []byte(sampleStream), sizes: []int{40}}
	decoder := NewDecoder(reader)

	total, err := decoder.Decode(ctx, DecodeCallbacks{
		OnContent: func(string) { cancel() },
	})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !strings.HasPrefix("Héllo wörld", total) || total == "" {
		t.Errorf("accumulated total = %q, want a prefix of the full content", total)
	}
}

func TestDecoderReuseIsRejected(t *testing.T) {
	decoder := NewDecoder(strings.NewReader(sampleStream))
	if _, err := decoder.Decode(context.Background(), DecodeCallbacks{}); err != nil {
		t.Fatalf("first Decode() error: %v", err)
	}
	if _, err := decoder.Decode(context.Background(), DecodeCallbacks{}); !errors.Is(err, ErrDecoderReused) {
		t.Fatalf("second Decode() error = %v, want ErrDecoderReused", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var output strings.Builder
	encoder := NewEncoder(&output)
	if err := encoder.Pump(context.Background(), "round-trip-chat-id-0001", contentStream("echo ", "chamber"), nil); err != nil {
		t.Fatalf("Pump() error: %v", err)
	}

	var gotID string
	decoder := NewDecoder(strings.NewReader(output.String()))
	total, err := decoder.Decode(context.Background(), DecodeCallbacks{
		OnMetadata: func(id string) { gotID = id },
	})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if total != "echo chamber" {
		t.Errorf("total = %q, want %q", total, "echo chamber")
	}
	if gotID != "round-trip-chat-id-0001" {
		t.Errorf("metadata id = %q", gotID)
	}
}
