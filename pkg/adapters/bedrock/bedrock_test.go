package bedrock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

func TestChatJSON_NotImplemented(t *testing.T) {
	a := New(Config{BaseURL: "https://bedrock-runtime.us-east-1.amazonaws.com"})
	_, _, err := a.ChatJSON(context.Background(), &gwtypes.ChatRequest{})
	require.Error(t, err)
	assert.True(t, gwerrors.Is(err, gwerrors.BadRequest))
}

func TestChatStream_NotImplemented(t *testing.T) {
	a := New(Config{})
	_, err := a.ChatStream(context.Background(), &gwtypes.ChatRequest{})
	require.Error(t, err)
	assert.True(t, gwerrors.Is(err, gwerrors.BadRequest))
}

func TestCapabilities(t *testing.T) {
	a := New(Config{})
	assert.False(t, a.HasAuth())
	assert.False(t, a.SupportsStreaming())
	assert.Equal(t, "bedrock", a.Name())
}
