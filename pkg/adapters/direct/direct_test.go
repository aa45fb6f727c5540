package direct

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

type stubCompleter struct {
	resp *gwtypes.ChatResponse
	err  error
}

func (s *stubCompleter) Complete(ctx context.Context, req *gwtypes.ChatRequest) (*gwtypes.ChatResponse, error) {
	return s.resp, s.err
}

func TestChatJSON_NoCompleterConfigured(t *testing.T) {
	a := New(Config{})
	_, _, err := a.ChatJSON(context.Background(), &gwtypes.ChatRequest{})
	require.Error(t, err)
	assert.True(t, gwerrors.Is(err, gwerrors.BadRequest))
}

func TestChatJSON_DelegatesToCompleter(t *testing.T) {
	text := "hello from the completer"
	stub := &stubCompleter{resp: gwtypes.NewChatResponse("id-1", "", 0, []gwtypes.Choice{
		{Index: 0, Message: gwtypes.Message{Role: gwtypes.RoleAssistant, Content: gwtypes.Content{Text: &text}}, FinishReason: gwtypes.FinishStop},
	}, nil)}
	a := New(Config{ModelID: "local-model", Completer: stub})

	status, body, err := a.ChatJSON(context.Background(), &gwtypes.ChatRequest{
		Messages: []gwtypes.Message{{Role: gwtypes.RoleUser, Content: gwtypes.Content{Text: &text}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 200, status)

	var resp gwtypes.ChatResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "hello from the completer", resp.Choices[0].Message.Content.Flatten())
}

func TestChatStream_Unsupported(t *testing.T) {
	a := New(Config{})
	_, err := a.ChatStream(context.Background(), &gwtypes.ChatRequest{})
	require.Error(t, err)
	assert.True(t, gwerrors.Is(err, gwerrors.BadRequest))
}
