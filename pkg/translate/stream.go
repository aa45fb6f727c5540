package translate

import (
	"encoding/json"

	"github.com/llmgateway/gatewayd/pkg/gwtypes"
	"github.com/llmgateway/gatewayd/pkg/streamcore"
)

// AnthropicStreamRemapper consumes the gateway's canonical OpenAI-shaped
// chunks and re-emits the Anthropic event sequence:
// message_start -> content_block_start -> N*content_block_delta ->
// content_block_stop -> message_delta -> message_stop.
type AnthropicStreamRemapper struct {
	started bool
	blockOpen bool
}

type anthropicStreamEvent struct {
	Type         string          `json:"type"`
	Index        *int            `json:"index,omitempty"`
	Message      json.RawMessage `json:"message,omitempty"`
	ContentBlock json.RawMessage `json:"content_block,omitempty"`
	Delta        json.RawMessage `json:"delta,omitempty"`
	Usage        json.RawMessage `json:"usage,omitempty"`
}

// Remap translates one OpenAI-shaped chunk into zero or more Anthropic
// stream events, emitting message_start on the first chunk that has a
// choice and content_block_start lazily on the first chunk that carries
// content.
func (r *AnthropicStreamRemapper) Remap(chunk *gwtypes.ChatCompletionChunk) []streamcore.Event {
	var events []streamcore.Event

	if len(chunk.Choices) == 0 {
		return events
	}
	choice := chunk.Choices[0]

	if !r.started {
		r.started = true
		msg, _ := json.Marshal(map[string]interface{}{
			"id": chunk.ID, "type": "message", "role": "assistant",
			"model": chunk.Model, "content": []interface{}{},
		})
		events = append(events, toEvent(anthropicStreamEvent{Type: "message_start", Message: msg}))
	}

	if choice.Delta.Content != "" {
		if !r.blockOpen {
			r.blockOpen = true
			idx := 0
			block, _ := json.Marshal(map[string]interface{}{"type": "text", "text": ""})
			events = append(events, toEvent(anthropicStreamEvent{Type: "content_block_start", Index: &idx, ContentBlock: block}))
		}
		idx := 0
		delta, _ := json.Marshal(map[string]interface{}{"type": "text_delta", "text": choice.Delta.Content})
		events = append(events, toEvent(anthropicStreamEvent{Type: "content_block_delta", Index: &idx, Delta: delta}))
	}

	if choice.FinishReason != nil {
		if r.blockOpen {
			idx := 0
			events = append(events, toEvent(anthropicStreamEvent{Type: "content_block_stop", Index: &idx}))
			r.blockOpen = false
		}

		delta, _ := json.Marshal(map[string]interface{}{"stop_reason": string(*choice.FinishReason)})
		var usage json.RawMessage
		if chunk.Usage != nil {
			usage, _ = json.Marshal(map[string]interface{}{
				"input_tokens":  chunk.Usage.PromptTokens,
				"output_tokens": chunk.Usage.CompletionTokens,
			})
		}
		events = append(events, toEvent(anthropicStreamEvent{Type: "message_delta", Delta: delta, Usage: usage}))
		events = append(events, toEvent(anthropicStreamEvent{Type: "message_stop"}))
	}

	return events
}

func toEvent(e anthropicStreamEvent) streamcore.Event {
	body, _ := json.Marshal(e)
	return streamcore.Event{Event: e.Type, Data: string(body)}
}
