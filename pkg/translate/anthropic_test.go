package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

func TestAnthropicToOpenAI_SystemBecomesLeadingMessage(t *testing.T) {
	req := &AnthropicRequest{
		Model:   "claude-3-opus",
		System:  "be terse",
		Messages: []AnthropicMessage{
			{Role: "user", Content: []AnthropicContentBlock{{Type: "text", Text: "hi"}}},
		},
		MaxTokens:     512,
		StopSequences: []string{"STOP"},
		Metadata:      &AnthropicMetadata{UserID: "tenant-1"},
	}

	out := AnthropicToOpenAI(req)

	require.Len(t, out.Messages, 2)
	assert.Equal(t, gwtypes.RoleSystem, out.Messages[0].Role)
	assert.Equal(t, "be terse", out.Messages[0].Content.Flatten())
	assert.Equal(t, gwtypes.RoleUser, out.Messages[1].Role)
	assert.Equal(t, "hi", out.Messages[1].Content.Flatten())
	require.NotNil(t, out.MaxTokens)
	assert.Equal(t, 512, *out.MaxTokens)
	assert.Equal(t, []string{"STOP"}, out.Stop)
	assert.Equal(t, "tenant-1", out.User)
}

func TestAnthropicToOpenAI_NoSystemMeansNoLeadingMessage(t *testing.T) {
	req := &AnthropicRequest{
		Messages: []AnthropicMessage{{Role: "user", Content: []AnthropicContentBlock{{Type: "text", Text: "hi"}}}},
	}
	out := AnthropicToOpenAI(req)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, gwtypes.RoleUser, out.Messages[0].Role)
}

func TestOpenAIToAnthropic_PassesFinishReasonThroughAsStopReason(t *testing.T) {
	text := "answer"
	resp := gwtypes.NewChatResponse("id-1", "gpt-4o", 0, []gwtypes.Choice{
		{Message: gwtypes.Message{Role: gwtypes.RoleAssistant, Content: gwtypes.Content{Text: &text}}, FinishReason: gwtypes.FinishLength},
	}, &gwtypes.Usage{PromptTokens: 3, CompletionTokens: 5, TotalTokens: 8})

	out := OpenAIToAnthropic(resp)

	assert.Equal(t, "message", out.Type)
	require.Len(t, out.Content, 1)
	assert.Equal(t, "answer", out.Content[0].Text)
	assert.Equal(t, "length", out.StopReason)
	assert.Equal(t, 3, out.Usage.InputTokens)
	assert.Equal(t, 5, out.Usage.OutputTokens)
}

// TestRoundTrip_PreservesUserVisibleContent is the round-trip property
// test: translating a request to OpenAI shape and a synthesized
// response back to Anthropic shape must preserve the text the user
// actually sees, independent of the wire envelope.
func TestRoundTrip_PreservesUserVisibleContent(t *testing.T) {
	original := &AnthropicRequest{
		Model:    "claude-3-sonnet",
		System:   "be helpful",
		Messages: []AnthropicMessage{{Role: "user", Content: []AnthropicContentBlock{{Type: "text", Text: "what is 2+2?"}}}},
		MaxTokens: 128,
	}

	openaiReq := AnthropicToOpenAI(original)
	assert.Equal(t, "what is 2+2?", openaiReq.Messages[len(openaiReq.Messages)-1].Content.Flatten())

	answer := "4"
	synthesized := gwtypes.NewChatResponse("id-2", openaiReq.Model, 0, []gwtypes.Choice{
		{Message: gwtypes.Message{Role: gwtypes.RoleAssistant, Content: gwtypes.Content{Text: &answer}}, FinishReason: gwtypes.FinishStop},
	}, nil)

	back := OpenAIToAnthropic(synthesized)
	require.Len(t, back.Content, 1)
	assert.Equal(t, "4", back.Content[0].Text)
	assert.Equal(t, "stop", back.StopReason)
}
