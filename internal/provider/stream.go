package provider

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mimurillof/chat-agent-service/internal/grounding"
)

// Event is one element of an incremental generation: a text fragment,
// grounding metadata, or both. Function calls can also arrive here but
// streaming callers treat them as text-less events.
type Event struct {
	Text          string
	FunctionCalls []FunctionCall
	Grounding     *grounding.Metadata
}

// Stream is a finite, non-restartable sequence of Events read from the
// provider's server-sent event wire.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	model   string
	closed  bool
}

// NewStream wraps a server-sent event body. Callers other than Client
// are expected only in tests and alternate transports.
func NewStream(body io.ReadCloser, model string) *Stream {
	scanner := bufio.NewScanner(body)
	// Stream chunks can carry whole report sections in one data line.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Stream{body: body, scanner: scanner, model: model}
}

// Model returns the model name this stream was opened against.
func (s *Stream) Model() string { return s.model }

// Next returns the next event, or io.EOF when the sequence is
// exhausted. After io.EOF or an error the stream is done.
func (s *Stream) Next() (*Event, error) {
	if s.closed {
		return nil, io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk Result
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		ev := &Event{
			Text:          streamText(&chunk),
			FunctionCalls: chunk.FunctionCalls(),
			Grounding:     chunk.Grounding(),
		}
		return ev, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("stream read failed: %w", err)
	}
	return nil, io.EOF
}

// Close releases the underlying connection. Safe to call twice.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// streamText concatenates text parts without trimming: fragment
// boundaries are part of the payload in a stream.
func streamText(r *Result) string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
