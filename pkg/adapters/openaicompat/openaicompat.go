// Package openaicompat implements the OpenAI-compatible backend variant:
// pass-through request/response shaping against {base}/chat/completions.
package openaicompat

import (
	"context"
	"encoding/json"
	"io"

	"github.com/llmgateway/gatewayd/pkg/adapters/internal/wire"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Config configures the OpenAI-compatible adapter.
type Config struct {
	BaseURL string
	Token   string
	ModelID string
}

// Adapter is the OpenAI-compatible backend variant.
type Adapter struct {
	cfg    Config
	client *wire.Client
}

// New builds an OpenAI-compatible adapter.
func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg, client: &wire.Client{BaseURL: cfg.BaseURL}}
}

func (a *Adapter) Name() string             { return "openai-compat" }
func (a *Adapter) BaseURL() string          { return a.cfg.BaseURL }
func (a *Adapter) ModelID() string          { return a.cfg.ModelID }
func (a *Adapter) HasAuth() bool            { return a.cfg.Token != "" }
func (a *Adapter) SupportsStreaming() bool  { return true }

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
	return a.client.Post(ctx, "/chat/completions", a.wireRequest(req), a.headers())
}

func (a *Adapter) ChatStream(ctx context.Context, req *gwtypes.ChatRequest) (io.ReadCloser, error) {
	return a.client.PostStream(ctx, "/chat/completions", a.wireRequest(req), a.headers())
}

// DecodeResponse decodes a raw OpenAI-shaped JSON body (used by the
// orchestrator when adapting the non-streaming path to the canonical
// response type).
func DecodeResponse(body []byte) (*gwtypes.ChatResponse, error) {
	var resp gwtypes.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
