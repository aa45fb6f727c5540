// Package custom implements the catch-all backend variant: any backend
// URL that doesn't match a recognized pattern is treated as an
// OpenAI-compatible endpoint reached at the base URL plus Config.Path
// (default "/chat/completions"), letting operators point the gateway at
// arbitrary self-hosted inference servers that speak the OpenAI wire
// format under a non-standard path.
package custom

import (
	"context"
	"io"

	"github.com/llmgateway/gatewayd/pkg/adapters/internal/wire"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Config configures the custom adapter. Path defaults to
// "/chat/completions" when empty.
type Config struct {
	BaseURL string
	Token   string
	ModelID string
	Path    string
}

// Adapter is the custom backend variant.
type Adapter struct {
	cfg    Config
	client *wire.Client
}

// New builds a custom adapter.
func New(cfg Config) *Adapter {
	if cfg.Path == "" {
		cfg.Path = "/chat/completions"
	}
	return &Adapter{cfg: cfg, client: &wire.Client{BaseURL: cfg.BaseURL}}
}

func (a *Adapter) Name() string            { return "custom" }
func (a *Adapter) BaseURL() string         { return a.cfg.BaseURL }
func (a *Adapter) ModelID() string         { return a.cfg.ModelID }
func (a *Adapter) HasAuth() bool           { return a.cfg.Token != "" }
func (a *Adapter) SupportsStreaming() bool { return true }

func (a *Adapter) headers() map[string]string {
	if a.cfg.Token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + a.cfg.Token}
}

func (a *Adapter) wireRequest(req *gwtypes.ChatRequest) *gwtypes.ChatRequest {
	out := *req
	out.Model = req.EffectiveModel(a.cfg.ModelID)
	return &out
}

func (a *Adapter) ChatJSON(ctx context.Context, req *gwtypes.ChatRequest) (int, []byte, error) {
	return a.client.Post(ctx, a.cfg.Path, a.wireRequest(req), a.headers())
}

func (a *Adapter) ChatStream(ctx context.Context, req *gwtypes.ChatRequest) (io.ReadCloser, error) {
	return a.client.PostStream(ctx, a.cfg.Path, a.wireRequest(req), a.headers())
}
