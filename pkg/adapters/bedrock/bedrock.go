// Package bedrock is a placeholder backend variant for AWS Bedrock.
// Bedrock's wire format (model-specific request/response envelopes,
// SigV4 request signing) is out of scope for this gateway revision;
// the adapter satisfies the selector's totality requirement (spec.md
// §4.E) but reports itself as not implemented rather than silently
// mis-translating a request.
package bedrock

import (
	"context"
	"io"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Config configures the Bedrock adapter stub.
type Config struct {
	BaseURL string
	ModelID string
}

// Adapter is the Bedrock backend variant stub.
type Adapter struct {
	cfg Config
}

// New builds a Bedrock adapter stub.
func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

func (a *Adapter) Name() string            { return "bedrock" }
func (a *Adapter) BaseURL() string         { return a.cfg.BaseURL }
func (a *Adapter) ModelID() string         { return a.cfg.ModelID }
func (a *Adapter) HasAuth() bool           { return false }
func (a *Adapter) SupportsStreaming() bool { return false }

func (a *Adapter) ChatJSON(ctx context.Context, req *gwtypes.ChatRequest) (int, []byte, error) {
	return 0, nil, gwerrors.New(gwerrors.BadRequest, "bedrock backend is not implemented")
}

func (a *Adapter) ChatStream(ctx context.Context, req *gwtypes.ChatRequest) (io.ReadCloser, error) {
	return nil, gwerrors.New(gwerrors.BadRequest, "bedrock backend is not implemented")
}
