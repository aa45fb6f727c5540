package gwtypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func f64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int { return &i }

func userMsg(text string) Message {
	return Message{Role: RoleUser, Content: Content{Text: strPtr(text)}}
}

func TestValidate_EmptyMessagesRejected(t *testing.T) {
	r := &ChatRequest{}
	assert.Error(t, r.Validate(false))
}

func TestValidate_SystemMustBeFirst(t *testing.T) {
	r := &ChatRequest{Messages: []Message{
		userMsg("hi"),
		{Role: RoleSystem, Content: Content{Text: strPtr("be terse")}},
	}}
	assert.Error(t, r.Validate(false))
}

func TestValidate_AtMostOneSystem(t *testing.T) {
	r := &ChatRequest{Messages: []Message{
		{Role: RoleSystem, Content: Content{Text: strPtr("a")}},
		{Role: RoleSystem, Content: Content{Text: strPtr("b")}},
		userMsg("hi"),
	}}
	assert.Error(t, r.Validate(false))
}

func TestValidate_FirstNonSystemMustBeUser(t *testing.T) {
	r := &ChatRequest{Messages: []Message{
		{Role: RoleSystem, Content: Content{Text: strPtr("a")}},
		{Role: RoleAssistant, Content: Content{Text: strPtr("hi")}},
	}}
	assert.Error(t, r.Validate(false))
}

func TestValidate_HappyPath(t *testing.T) {
	r := &ChatRequest{Messages: []Message{userMsg("hi")}}
	assert.NoError(t, r.Validate(false))
}

func TestValidate_ToolMessageMustReferencePriorCall(t *testing.T) {
	r := &ChatRequest{Messages: []Message{
		userMsg("add 2 and 3"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Kind: "function", Function: FunctionCall{Name: "add", Arguments: `{"a":2,"b":3}`}}}},
		{Role: RoleTool, ToolCallID: "call_1", Content: Content{Text: strPtr(`{"result":5}`)}},
	}}
	assert.NoError(t, r.Validate(false))

	bad := &ChatRequest{Messages: []Message{
		userMsg("add 2 and 3"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Kind: "function"}}},
		{Role: RoleTool, ToolCallID: "call_2", Content: Content{Text: strPtr("x")}},
	}}
	assert.Error(t, bad.Validate(false))
}

func TestValidate_ToolChoiceSpecificRequiresMatchingTool(t *testing.T) {
	r := &ChatRequest{
		Messages:   []Message{userMsg("hi")},
		Tools:      []Tool{{Kind: "function", Function: FunctionDefinition{Name: "add"}}},
		ToolChoice: &ToolChoice{Kind: ToolChoiceSpecific, Name: "subtract"},
	}
	assert.Error(t, r.Validate(false))

	r.ToolChoice.Name = "add"
	assert.NoError(t, r.Validate(false))
}

func TestValidate_TemperatureBoundary(t *testing.T) {
	mk := func(temp float64) *ChatRequest {
		return &ChatRequest{Messages: []Message{userMsg("hi")}, Temperature: f64Ptr(temp)}
	}
	assert.NoError(t, mk(0.0).Validate(false))
	assert.NoError(t, mk(2.0).Validate(false))
	assert.Error(t, mk(-0.001).Validate(false))
	assert.Error(t, mk(2.001).Validate(false))
}

func TestValidate_StopBoundary(t *testing.T) {
	mk := func(n int) *ChatRequest {
		stop := make([]string, n)
		for i := range stop {
			stop[i] = "x"
		}
		return &ChatRequest{Messages: []Message{userMsg("hi")}, Stop: stop}
	}
	assert.NoError(t, mk(0).Validate(false))
	assert.NoError(t, mk(1).Validate(false))
	assert.NoError(t, mk(4).Validate(false))
	assert.Error(t, mk(5).Validate(false))
}

func TestValidate_MaxTokensMustBePositive(t *testing.T) {
	r := &ChatRequest{Messages: []Message{userMsg("hi")}, MaxTokens: intPtr(0)}
	assert.Error(t, r.Validate(false))
}

func TestValidate_UnrecognizedBlockTypeRejected(t *testing.T) {
	r := &ChatRequest{Messages: []Message{
		{Role: RoleUser, Content: Content{Blocks: []ContentBlock{{Type: "audio"}}}},
	}}
	assert.Error(t, r.Validate(false))
}

func TestValidate_Idempotent(t *testing.T) {
	r := &ChatRequest{Messages: []Message{userMsg("hi")}, Temperature: f64Ptr(0.5)}
	err1 := r.Validate(false)
	err2 := r.Validate(false)
	assert.Equal(t, err1, err2)
}

func TestContentJSON_StringForm(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"hi"}`), &m))
	assert.Equal(t, "hi", m.Content.Flatten())
	assert.False(t, m.Content.IsBlockForm())

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"hi"}`, string(out))
}

func TestContentJSON_BlockForm(t *testing.T) {
	var m Message
	raw := `{"role":"user","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	assert.True(t, m.Content.IsBlockForm())
	assert.Equal(t, "a\nb", m.Content.Flatten())
}

func TestToolChoiceJSON_StringForms(t *testing.T) {
	for _, s := range []string{"none", "auto", "required"} {
		var tc ToolChoice
		require.NoError(t, json.Unmarshal([]byte(`"`+s+`"`), &tc))
		assert.Equal(t, ToolChoiceKind(s), tc.Kind)

		out, err := json.Marshal(tc)
		require.NoError(t, err)
		assert.JSONEq(t, `"`+s+`"`, string(out))
	}
}

func TestToolChoiceJSON_SpecificForm(t *testing.T) {
	var tc ToolChoice
	raw := `{"type":"function","function":{"name":"add"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &tc))
	assert.Equal(t, ToolChoiceSpecific, tc.Kind)
	assert.Equal(t, "add", tc.Name)

	out, err := json.Marshal(tc)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
