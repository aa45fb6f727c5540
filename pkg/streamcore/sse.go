// Package streamcore implements the gateway's SSE event model: parsing
// an upstream event-stream body, writing one to an HTTP response, and
// the producer state machine that drives either path. Grounded on the
// teacher's pkg/providerutils/streaming/sse.go line-oriented scanner,
// generalized into a state machine with two execution modes.
package streamcore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Event is a single Server-Sent Event.
type Event struct {
	Event string
	Data  string
	ID    string
	Retry int
}

// IsDone reports whether this event signals stream completion.
func (e Event) IsDone() bool {
	return e.Data == "[DONE]"
}

// Parser reads SSE events off an upstream body.
type Parser struct {
	scanner *bufio.Scanner
	err     error
}

// NewParser builds a parser over r.
func NewParser(r io.Reader) *Parser {
	return &Parser{scanner: bufio.NewScanner(r)}
}

// Next returns the next event, or io.EOF when the stream is exhausted.
func (p *Parser) Next() (*Event, error) {
	if p.err != nil {
		return nil, p.err
	}

	event := &Event{}
	var dataLines []string

	for p.scanner.Scan() {
		line := p.scanner.Text()

		if line == "" {
			if len(dataLines) > 0 || event.Event != "" {
				event.Data = strings.Join(dataLines, "\n")
				return event, nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}

		field := line[:colonIdx]
		value := line[colonIdx+1:]
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}

		switch field {
		case "event":
			event.Event = value
		case "data":
			dataLines = append(dataLines, value)
		case "id":
			event.ID = value
		case "retry":
			var retry int
			_, _ = fmt.Sscanf(value, "%d", &retry)
			event.Retry = retry
		}
	}

	if err := p.scanner.Err(); err != nil {
		p.err = err
		return nil, err
	}

	if len(dataLines) > 0 || event.Event != "" {
		event.Data = strings.Join(dataLines, "\n")
		return event, nil
	}

	p.err = io.EOF
	return nil, io.EOF
}

// Writer writes SSE events to an HTTP response writer (or any
// io.Writer; the orchestrator flushes after each WriteEvent call).
type Writer struct {
	w io.Writer
}

// NewWriter builds a writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEvent serializes and writes a single event.
func (w *Writer) WriteEvent(event Event) error {
	var buf bytes.Buffer

	if event.Event != "" {
		fmt.Fprintf(&buf, "event: %s\n", event.Event)
	}
	if event.ID != "" {
		fmt.Fprintf(&buf, "id: %s\n", event.ID)
	}
	if event.Retry > 0 {
		fmt.Fprintf(&buf, "retry: %d\n", event.Retry)
	}
	if event.Data != "" {
		for _, line := range strings.Split(event.Data, "\n") {
			fmt.Fprintf(&buf, "data: %s\n", line)
		}
	} else {
		buf.WriteString("data: \n")
	}
	buf.WriteString("\n")

	_, err := w.w.Write(buf.Bytes())
	return err
}

// WriteData writes a data-only event.
func (w *Writer) WriteData(data string) error {
	return w.WriteEvent(Event{Data: data})
}

// WriteDone writes the single terminal [DONE] event every stream ends
// with exactly once.
func (w *Writer) WriteDone() error {
	return w.WriteEvent(Event{Data: "[DONE]"})
}
