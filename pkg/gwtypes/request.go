package gwtypes

import "fmt"

// ChatRequest is the canonical internal request shape every adapter and
// cross-cutting component (cache, rate limiter, load balancer) consumes.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Model is optional; "" or "auto" resolves to the adapter's default.
	Model string `json:"model,omitempty"`

	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	N                *int     `json:"n,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`
	Stop             []string `json:"stop,omitempty"`

	Stream bool `json:"stream,omitempty"`

	Tools      []Tool      `json:"tools,omitempty"`
	ToolChoice *ToolChoice `json:"tool_choice,omitempty"`

	// User is an opaque tenant tag used as the rate-limit key.
	User string `json:"user,omitempty"`

	// LogitBias maps token-id (as a decimal string key, per the OpenAI
	// wire convention) to a bias in [-100, 100].
	LogitBias map[string]float64 `json:"logit_bias,omitempty"`
}

// EffectiveModel resolves "" / "auto" to defaultModel.
func (r *ChatRequest) EffectiveModel(defaultModel string) string {
	if r.Model == "" || r.Model == "auto" {
		return defaultModel
	}
	return r.Model
}

// Validate enforces the invariants of the data model in a fixed order so
// that Validate is idempotent: validate(validate(req)) == validate(req).
func (r *ChatRequest) Validate(strict bool) error {
	// 1. Non-empty messages.
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages must not be empty")
	}

	// 2. Role values lowercase and from the fixed set.
	for i, m := range r.Messages {
		if !validRoles[m.Role] {
			return fmt.Errorf("messages[%d]: invalid role %q", i, m.Role)
		}
	}

	// 3. At most one system message, and if present, at the head.
	systemCount := 0
	for i, m := range r.Messages {
		if m.Role == RoleSystem {
			systemCount++
			if i != 0 {
				return fmt.Errorf("system message must be first in the sequence")
			}
		}
	}
	if systemCount > 1 {
		return fmt.Errorf("at most one system message is allowed")
	}

	// 4. First non-system role is user.
	firstNonSystem := -1
	for i, m := range r.Messages {
		if m.Role != RoleSystem {
			firstNonSystem = i
			break
		}
	}
	if firstNonSystem == -1 {
		return fmt.Errorf("messages must contain at least one non-system message")
	}
	if r.Messages[firstNonSystem].Role != RoleUser {
		return fmt.Errorf("first non-system message must have role=user")
	}

	// 5. Every tool-role message references the immediately prior
	// assistant message's tool call id.
	for i, m := range r.Messages {
		if m.Role != RoleTool {
			continue
		}
		if i == 0 || r.Messages[i-1].Role != RoleAssistant {
			return fmt.Errorf("messages[%d]: tool message must immediately follow an assistant message", i)
		}
		prior := r.Messages[i-1]
		found := false
		for _, tc := range prior.ToolCalls {
			if tc.ID == m.ToolCallID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("messages[%d]: tool_call_id %q not found in preceding assistant tool_calls", i, m.ToolCallID)
		}
	}

	// 6. tool_choice=specific{n} requires a matching tool.
	if r.ToolChoice != nil && r.ToolChoice.Kind == ToolChoiceSpecific {
		found := false
		for _, t := range r.Tools {
			if t.Function.Name == r.ToolChoice.Name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("tool_choice names %q which is not present in tools", r.ToolChoice.Name)
		}
	}

	// 7. Numeric parameters within range.
	if err := validateRange("temperature", r.Temperature, 0, 2); err != nil {
		return err
	}
	if err := validateRange("top_p", r.TopP, 0, 1); err != nil {
		return err
	}
	if err := validateRange("frequency_penalty", r.FrequencyPenalty, -2, 2); err != nil {
		return err
	}
	if err := validateRange("presence_penalty", r.PresencePenalty, -2, 2); err != nil {
		return err
	}
	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be >= 1")
	}
	if r.N != nil && *r.N < 1 {
		return fmt.Errorf("n must be >= 1")
	}
	if len(r.Stop) > 4 {
		return fmt.Errorf("stop must contain at most 4 entries")
	}
	for _, v := range r.LogitBias {
		if v < -100 || v > 100 {
			return fmt.Errorf("logit_bias values must be within [-100, 100]")
		}
	}

	// 8. Content arrays contain only recognized block types.
	for i, m := range r.Messages {
		if !m.Content.IsBlockForm() {
			continue
		}
		for j, b := range m.Content.Blocks {
			if b.Type != ContentText && b.Type != ContentImage {
				return fmt.Errorf("messages[%d].content[%d]: unrecognized block type %q", i, j, b.Type)
			}
		}
	}

	_ = strict // unknown-field rejection happens at decode time, see orchestrator
	return nil
}

func validateRange(name string, v *float64, lo, hi float64) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return fmt.Errorf("%s must be within [%g, %g]", name, lo, hi)
	}
	return nil
}
