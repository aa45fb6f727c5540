// Package direct implements the in-process backend variant: instead of
// issuing an HTTP call, it invokes a locally registered Completer,
// letting the gateway front an embedded model or a test double without
// a network hop. Requests routed here that have no Completer
// configured fail fast as BadRequest rather than hanging on a nil call.
package direct

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Completer executes a chat request in-process and returns a canonical
// response. Implementations are supplied by whatever embeds the
// gateway (tests, an in-process model runtime).
type Completer interface {
	Complete(ctx context.Context, req *gwtypes.ChatRequest) (*gwtypes.ChatResponse, error)
}

// Config configures the direct adapter.
type Config struct {
	ModelID   string
	Completer Completer
}

// Adapter is the in-process backend variant.
type Adapter struct {
	cfg Config
}

// New builds a direct adapter.
func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

func (a *Adapter) Name() string            { return "direct" }
func (a *Adapter) BaseURL() string         { return "direct" }
func (a *Adapter) ModelID() string         { return a.cfg.ModelID }
func (a *Adapter) HasAuth() bool           { return false }
func (a *Adapter) SupportsStreaming() bool { return false }

func (a *Adapter) ChatJSON(ctx context.Context, req *gwtypes.ChatRequest) (int, []byte, error) {
	if a.cfg.Completer == nil {
		return 0, nil, gwerrors.New(gwerrors.BadRequest, "direct backend: no completer configured")
	}

	wireReq := *req
	wireReq.Model = req.EffectiveModel(a.cfg.ModelID)

	resp, err := a.cfg.Completer.Complete(ctx, &wireReq)
	if err != nil {
		return 0, nil, gwerrors.Wrap(gwerrors.Internal, "direct backend: completer failed", err)
	}
	resp.Created = time.Now().Unix()

	body, err := json.Marshal(resp)
	if err != nil {
		return 0, nil, gwerrors.Wrap(gwerrors.Serialization, "direct backend: marshal response", err)
	}
	return 200, body, nil
}

// ChatStream is unsupported: the direct backend never streams, so
// callers must fall back to synthesized streaming over ChatJSON.
func (a *Adapter) ChatStream(ctx context.Context, req *gwtypes.ChatRequest) (io.ReadCloser, error) {
	return nil, gwerrors.New(gwerrors.BadRequest, "direct backend does not support streaming")
}
