package tools

import (
	"container/ring"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// defaultHistorySize bounds the executor's in-memory call history.
const defaultHistorySize = 1000

// Handler executes one named tool call and returns its JSON-encodable
// result.
type Handler func(ctx context.Context, arguments map[string]interface{}) (interface{}, error)

// Result records the outcome of one executed tool call.
type Result struct {
	CallID    string
	Name      string
	Output    interface{}
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Executor dispatches ToolCalls to registered handlers and keeps a
// bounded ring-buffer history of executions for observability.
type Executor struct {
	mu       sync.Mutex
	handlers map[string]Handler
	history  *ring.Ring
}

// NewExecutor builds an executor with the given history capacity (0
// uses defaultHistorySize).
func NewExecutor(historySize int) *Executor {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Executor{
		handlers: make(map[string]Handler),
		history:  ring.New(historySize),
	}
}

// RegisterHandler associates a handler with a function name.
func (e *Executor) RegisterHandler(name string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = h
}

// Execute runs the named tool call's handler, records the outcome in
// history, and returns the result. An unregistered function name
// yields a BadRequest gwerror rather than a panic or silent no-op.
func (e *Executor) Execute(ctx context.Context, call gwtypes.ToolCall) (*Result, error) {
	e.mu.Lock()
	handler, ok := e.handlers[call.Function.Name]
	e.mu.Unlock()

	start := time.Now()
	if !ok {
		err := gwerrors.New(gwerrors.BadRequest, "tool function not found: "+call.Function.Name)
		e.record(Result{CallID: call.ID, Name: call.Function.Name, Err: err, StartedAt: start})
		return nil, err
	}

	var args map[string]interface{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			wrapped := gwerrors.Wrap(gwerrors.BadRequest, "tool call arguments are not valid JSON", err)
			e.record(Result{CallID: call.ID, Name: call.Function.Name, Err: wrapped, StartedAt: start})
			return nil, wrapped
		}
	}

	output, err := handler(ctx, args)
	result := Result{
		CallID:    call.ID,
		Name:      call.Function.Name,
		Output:    output,
		Err:       err,
		StartedAt: start,
		Duration:  time.Since(start),
	}
	e.record(result)

	if err != nil {
		return &result, gwerrors.Wrap(gwerrors.Internal, "tool execution failed: "+call.Function.Name, err)
	}
	return &result, nil
}

func (e *Executor) record(r Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Value = r
	e.history = e.history.Next()
}

// History returns the recorded results in oldest-to-newest order,
// skipping ring slots that have never been written.
func (e *Executor) History() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Result, 0, e.history.Len())
	e.history.Do(func(v interface{}) {
		if v == nil {
			return
		}
		out = append(out, v.(Result))
	})
	return out
}
