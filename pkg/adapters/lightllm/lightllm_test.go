package lightllm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

func textMsg(role gwtypes.Role, text string) gwtypes.Message {
	t := text
	return gwtypes.Message{Role: role, Content: gwtypes.Content{Text: &t}}
}

func TestFlattenPrompt_DropsToolMessages(t *testing.T) {
	msgs := []gwtypes.Message{
		textMsg(gwtypes.RoleSystem, "be helpful"),
		textMsg(gwtypes.RoleUser, "hi"),
		{Role: gwtypes.RoleTool, ToolCallID: "call_1", Content: gwtypes.Content{Text: strPtr("42")}},
	}
	prompt := flattenPrompt(msgs)

	assert.Contains(t, prompt, "<|system|>\nbe helpful")
	assert.Contains(t, prompt, "<|user|>\nhi")
	assert.NotContains(t, prompt, "42")
	assert.Contains(t, prompt, "<|assistant|> ")
}

func TestFlattenPrompt_EndsWithAssistantMarker(t *testing.T) {
	msgs := []gwtypes.Message{textMsg(gwtypes.RoleUser, "hi")}
	prompt := flattenPrompt(msgs)
	assert.Regexp(t, `<\|assistant\|> $`, prompt)
}

func TestPath_DispatchesOnV1Segment(t *testing.T) {
	a := New(Config{BaseURL: "http://lightllm:8080"})
	assert.Equal(t, "/generate", a.path())

	a2 := New(Config{BaseURL: "http://lightllm:8080/v1"})
	assert.Equal(t, "/chat/completions", a2.path())
}

func TestShapeResponse_SynthesizesOpenAIEnvelope(t *testing.T) {
	a := New(Config{ModelID: "llama-70b"})
	req := &gwtypes.ChatRequest{Messages: []gwtypes.Message{textMsg(gwtypes.RoleUser, "hello there")}}
	raw, err := json.Marshal(generateResponse{Text: "hi, how can I help?"})
	require.NoError(t, err)

	shaped, err := a.shapeResponse(req, raw)
	require.NoError(t, err)

	var resp gwtypes.ChatResponse
	require.NoError(t, json.Unmarshal(shaped, &resp))

	assert.Equal(t, "chat.completion", resp.Object)
	assert.Equal(t, "llama-70b", resp.Model)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hi, how can I help?", resp.Choices[0].Message.Content.Flatten())
	assert.Equal(t, gwtypes.FinishStop, resp.Choices[0].FinishReason)
	require.NotNil(t, resp.Usage)
	assert.True(t, resp.Usage.TotalTokens > 0)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
}

func TestEstimateTokens_TruncatesCharsOverFour(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(0))
	assert.Equal(t, 0, estimateTokens(1))
	assert.Equal(t, 0, estimateTokens(3))
	assert.Equal(t, 2, estimateTokens(8))
}

func strPtr(s string) *string { return &s }
