package tools

import (
	"encoding/json"

	"github.com/llmgateway/gatewayd/pkg/streamcore"
)

// Streaming tool-call event types for surfacing tool execution over SSE.
// The builders below only render events; neither of pkg/streamcore's
// producers (Passthrough, Synthesized) emits them.
const (
	EventToolCallStart = "tool_call_start"
	EventToolCallDelta = "tool_call_delta"
	EventToolCallEnd   = "tool_call_end"
	EventToolCallResult = "tool_call_result"
	EventToolCallError  = "tool_call_error"
)

// CallStartEvent renders a tool_call_start event.
func CallStartEvent(callID, name string) streamcore.Event {
	body, _ := json.Marshal(map[string]string{"id": callID, "name": name})
	return streamcore.Event{Event: EventToolCallStart, Data: string(body)}
}

// CallDeltaEvent renders a tool_call_delta event carrying a fragment of
// streamed argument JSON.
func CallDeltaEvent(callID, argumentsFragment string) streamcore.Event {
	body, _ := json.Marshal(map[string]string{"id": callID, "arguments": argumentsFragment})
	return streamcore.Event{Event: EventToolCallDelta, Data: string(body)}
}

// CallEndEvent renders a tool_call_end event.
func CallEndEvent(callID string) streamcore.Event {
	body, _ := json.Marshal(map[string]string{"id": callID})
	return streamcore.Event{Event: EventToolCallEnd, Data: string(body)}
}

// CallResultEvent renders a tool_call_result event carrying the
// executor's output.
func CallResultEvent(callID string, output interface{}) streamcore.Event {
	body, _ := json.Marshal(map[string]interface{}{"id": callID, "output": output})
	return streamcore.Event{Event: EventToolCallResult, Data: string(body)}
}

// CallErrorEvent renders a tool_call_error event.
func CallErrorEvent(callID, message string) streamcore.Event {
	body, _ := json.Marshal(map[string]string{"id": callID, "error": message})
	return streamcore.Event{Event: EventToolCallError, Data: string(body)}
}
