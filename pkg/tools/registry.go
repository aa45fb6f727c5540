// Package tools implements the gateway's function-calling subsystem: a
// registry of callable function definitions, a validator enforcing
// tool_choice and JSON-Schema-subset argument shapes, and an executor
// that dispatches tool calls and records their history.
//
// Grounded on the teacher's pkg/registry/registry.go map+RWMutex
// registry pattern (generalized here from provider registration to
// function registration), pkg/schema/validator.go (whose body is a
// stub in the teacher — this package supplies the real implementation
// the teacher never finished), and pkg/mcp/jsonrpc.go's call/response
// correlation-by-ID idiom, reused for the executor's history ring.
package tools

import (
	"fmt"
	"sync"

	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Registry holds callable function definitions by name.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]gwtypes.FunctionDefinition
	required map[string]bool
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:     make(map[string]gwtypes.FunctionDefinition),
		required: make(map[string]bool),
	}
}

// Register adds or replaces a function definition. required marks the
// function as one every request must be allowed to call (used by the
// validator when tool_choice=required has no matching tools supplied).
func (r *Registry) Register(def gwtypes.FunctionDefinition, required bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	r.required[def.Name] = required
}

// Get returns a function definition by name.
func (r *Registry) Get(name string) (gwtypes.FunctionDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[name]
	return ok
}

// ListAsTools returns every registered definition wrapped as a Tool,
// suitable for splicing into a ChatRequest.Tools when the caller didn't
// already supply its own tool list.
func (r *Registry) ListAsTools() []gwtypes.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]gwtypes.Tool, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, gwtypes.Tool{Kind: "function", Function: d})
	}
	return out
}

// RequiredOnly returns the names registered as required.
func (r *Registry) RequiredOnly() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.required))
	for name, req := range r.required {
		if req {
			out = append(out, name)
		}
	}
	return out
}

// Clear removes every registered function.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = make(map[string]gwtypes.FunctionDefinition)
	r.required = make(map[string]bool)
}

// ErrFunctionNotFound is a sentinel for a name with no registered
// definition. Get reports absence through its bool result, and nothing
// in this package returns ErrFunctionNotFound.
var ErrFunctionNotFound = fmt.Errorf("tools: function not found")
