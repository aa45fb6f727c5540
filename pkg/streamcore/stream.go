package streamcore

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// State is the producer's lifecycle state.
type State int

const (
	Idle State = iota
	Opened
	Emitting
	Closing
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Opened:
		return "opened"
	case Emitting:
		return "emitting"
	case Closing:
		return "closing"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

const keepAliveInterval = 30 * time.Second

// Stream is a single-producer, single-consumer channel of events. The
// HTTP transport consumes it; cancelling ctx (or closing upstream)
// transitions the producer to Terminated and closes the channel.
type Stream struct {
	Events chan Event
	state  State
}

func newStream() *Stream {
	return &Stream{Events: make(chan Event, 8), state: Idle}
}

// State reports the producer's current lifecycle state. Safe to call
// only from the consuming goroutine after the producer has exited,
// or informally for diagnostics; the producer never publishes state
// transitions concurrently with this read in the tests in this
// package, which drain Events to completion before inspecting state.
func (s *Stream) State() State { return s.state }

// Passthrough relays an upstream SSE body unchanged, re-terminating it
// with exactly one [DONE] event even if the upstream stream omits or
// duplicates its own terminator. release is called once, after the
// producer goroutine exits, to free a load-balancer semaphore permit.
func Passthrough(ctx context.Context, upstream io.ReadCloser, release func()) *Stream {
	s := newStream()
	s.state = Opened

	go func() {
		defer close(s.Events)
		defer upstream.Close()
		defer release()

		s.state = Emitting
		parser := NewParser(upstream)
		sawDone := false

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		type result struct {
			ev  *Event
			err error
		}
		next := make(chan result, 1)
		fetch := func() {
			ev, err := parser.Next()
			next <- result{ev, err}
		}
		go fetch()

		for {
			select {
			case <-ctx.Done():
				s.state = Terminated
				return
			case r := <-next:
				ticker.Reset(keepAliveInterval)
				if r.err == io.EOF {
					if !sawDone {
						s.state = Closing
						emit(ctx, s.Events, Event{Data: "[DONE]"})
					}
					s.state = Terminated
					return
				}
				if r.err != nil {
					s.state = Terminated
					return
				}
				if r.ev.IsDone() {
					if sawDone {
						go fetch()
						continue
					}
					sawDone = true
				}
				if !emit(ctx, s.Events, *r.ev) {
					s.state = Terminated
					return
				}
				if sawDone {
					s.state = Closing
					s.state = Terminated
					return
				}
				go fetch()
			case <-ticker.C:
				if !emit(ctx, s.Events, Event{Event: "ping", Data: ""}) {
					s.state = Terminated
					return
				}
			}
		}
	}()

	return s
}

// Synthesized builds a three-event stream from a single non-streaming
// response: a role+content delta chunk, a finish+usage chunk, then the
// terminal [DONE] event. Used for backends that can't stream natively
// (e.g. lightllm, direct).
func Synthesized(ctx context.Context, resp *gwtypes.ChatResponse, release func()) *Stream {
	s := newStream()
	s.state = Opened

	go func() {
		defer close(s.Events)
		defer release()

		s.state = Emitting

		if len(resp.Choices) == 0 {
			s.state = Closing
			emit(ctx, s.Events, Event{Data: "[DONE]"})
			s.state = Terminated
			return
		}

		choice := resp.Choices[0]
		deltaChunk := gwtypes.NewChunk(resp.ID, resp.Model, resp.Created, []gwtypes.ChunkChoice{{
			Index: 0,
			Delta: gwtypes.Delta{
				Role:    choice.Message.Role,
				Content: choice.Message.Content.Flatten(),
			},
		}}, nil)
		if !emitJSON(ctx, s.Events, deltaChunk) {
			s.state = Terminated
			return
		}

		finishReason := choice.FinishReason
		finishChunk := gwtypes.NewChunk(resp.ID, resp.Model, resp.Created, []gwtypes.ChunkChoice{{
			Index:        0,
			Delta:        gwtypes.Delta{},
			FinishReason: &finishReason,
		}}, resp.Usage)
		if !emitJSON(ctx, s.Events, finishChunk) {
			s.state = Terminated
			return
		}

		s.state = Closing
		emit(ctx, s.Events, Event{Data: "[DONE]"})
		s.state = Terminated
	}()

	return s
}

func emit(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func emitJSON(ctx context.Context, ch chan<- Event, v interface{}) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return emit(ctx, ch, Event{Data: string(b)})
}
