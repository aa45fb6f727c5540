// Package vllm implements the vLLM backend variant: pass-through
// request/response shaping against {base}/v1/chat/completions.
package vllm

import (
	"context"
	"io"

	"github.com/llmgateway/gatewayd/pkg/adapters/internal/wire"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Config configures the vLLM adapter.
type Config struct {
	BaseURL string
	Token   string
	ModelID string
}

// Adapter is the vLLM backend variant.
type Adapter struct {
	cfg    Config
	client *wire.Client
}

// New builds a vLLM adapter.
func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg, client: &wire.Client{BaseURL: cfg.BaseURL}}
}

func (a *Adapter) Name() string            { return "vllm" }
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
	return a.client.Post(ctx, "/v1/chat/completions", a.wireRequest(req), a.headers())
}

func (a *Adapter) ChatStream(ctx context.Context, req *gwtypes.ChatRequest) (io.ReadCloser, error) {
	return a.client.PostStream(ctx, "/v1/chat/completions", a.wireRequest(req), a.headers())
}
