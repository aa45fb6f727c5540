// Package translate converts between the Anthropic Messages API shape
// and the gateway's canonical OpenAI-style gwtypes, both directions,
// so /v1/messages can be served by the same backend adapters as
// /v1/chat/completions. Grounded on the teacher's
// pkg/providers/anthropic (tool_converter.go, context_management.go)
// message-shape-juggling style and pkg/providerutils/prompt/converter.go.
package translate

import (
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// AnthropicContentBlock is one block of an Anthropic message's content.
type AnthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// AnthropicMessage is one turn in an Anthropic Messages request.
type AnthropicMessage struct {
	Role    string                  `json:"role"`
	Content []AnthropicContentBlock `json:"content"`
}

// AnthropicRequest is the Anthropic Messages API request shape.
type AnthropicRequest struct {
	Model string `json:"model"`

	// System is decoded as a plain string only; a request whose system
	// value is a block array fails to decode into AnthropicRequest.
	System string `json:"system,omitempty"`

	Messages      []AnthropicMessage `json:"messages"`
	MaxTokens     int                `json:"max_tokens"`
	Temperature   *float64           `json:"temperature,omitempty"`
	TopP          *float64           `json:"top_p,omitempty"`
	TopK          *int               `json:"top_k,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	Stream        bool               `json:"stream,omitempty"`

	Metadata *AnthropicMetadata `json:"metadata,omitempty"`
}

// AnthropicMetadata carries the Anthropic request's optional tenant tag.
type AnthropicMetadata struct {
	UserID string `json:"user_id,omitempty"`
}

// AnthropicUsage mirrors Anthropic's input/output token accounting.
type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// AnthropicResponse is the Anthropic Messages API response shape.
type AnthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []AnthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      AnthropicUsage          `json:"usage"`
}

// AnthropicToOpenAI converts an Anthropic Messages request to the
// gateway's canonical ChatRequest: the system string (if present)
// becomes a leading system message, max_tokens/stop_sequences and
// metadata.user_id map onto their OpenAI-shaped equivalents. top_k has
// no OpenAI analogue and is dropped; callers that need it can read it
// back off the original AnthropicRequest before calling this function.
func AnthropicToOpenAI(req *AnthropicRequest) *gwtypes.ChatRequest {
	messages := make([]gwtypes.Message, 0, len(req.Messages)+1)

	if req.System != "" {
		text := req.System
		messages = append(messages, gwtypes.Message{
			Role:    gwtypes.RoleSystem,
			Content: gwtypes.Content{Text: &text},
		})
	}

	for _, m := range req.Messages {
		messages = append(messages, gwtypes.Message{
			Role:    gwtypes.Role(m.Role),
			Content: blocksToContent(m.Content),
		})
	}

	maxTokens := req.MaxTokens
	out := &gwtypes.ChatRequest{
		Messages:    messages,
		Model:       req.Model,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   &maxTokens,
		Stop:        req.StopSequences,
		Stream:      req.Stream,
	}
	if req.Metadata != nil {
		out.User = req.Metadata.UserID
	}
	return out
}

// OpenAIToAnthropic converts the gateway's canonical ChatResponse back
// to the Anthropic Messages response shape, taking the first choice's
// message as the single-candidate Anthropic response (Anthropic has no
// n>1 concept).
func OpenAIToAnthropic(resp *gwtypes.ChatResponse) *AnthropicResponse {
	out := &AnthropicResponse{
		ID:    resp.ID,
		Type:  "message",
		Role:  string(gwtypes.RoleAssistant),
		Model: resp.Model,
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		out.Content = []AnthropicContentBlock{{Type: "text", Text: choice.Message.Content.Flatten()}}
		out.StopReason = string(choice.FinishReason)
	}

	if resp.Usage != nil {
		out.Usage = AnthropicUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	return out
}

func blocksToContent(blocks []AnthropicContentBlock) gwtypes.Content {
	if len(blocks) == 1 && blocks[0].Type == "text" {
		text := blocks[0].Text
		return gwtypes.Content{Text: &text}
	}

	out := make([]gwtypes.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Type != "text" {
			continue
		}
		out = append(out, gwtypes.ContentBlock{Type: gwtypes.ContentText, Text: b.Text})
	}
	return gwtypes.Content{Blocks: out}
}

