// Package azure implements the Azure OpenAI backend variant: a
// deployment-scoped URL and an api-key header, instead of the Bearer
// scheme every other variant uses. Grounded on the teacher SDK's
// pkg/providers/azure/provider.go URL-building and header-injection
// pattern, adapted to the gateway's deployment-URL wire shape.
package azure

import (
	"context"
	"fmt"
	"io"

	"github.com/llmgateway/gatewayd/pkg/adapters/internal/wire"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

const defaultAPIVersion = "2023-12-01-preview"

// Config configures the Azure OpenAI adapter.
type Config struct {
	// BaseURL is the resource endpoint, e.g. https://my-resource.openai.azure.com
	BaseURL string
	APIKey  string
	// ModelID is the deployment name.
	ModelID    string
	APIVersion string
}

// Adapter is the Azure OpenAI backend variant.
type Adapter struct {
	cfg    Config
	client *wire.Client
}

// New builds an Azure OpenAI adapter.
func New(cfg Config) *Adapter {
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	return &Adapter{cfg: cfg, client: &wire.Client{BaseURL: cfg.BaseURL}}
}

func (a *Adapter) Name() string            { return "azure" }
func (a *Adapter) BaseURL() string         { return a.cfg.BaseURL }
func (a *Adapter) ModelID() string         { return a.cfg.ModelID }
func (a *Adapter) HasAuth() bool           { return a.cfg.APIKey != "" }
func (a *Adapter) SupportsStreaming() bool { return true }

func (a *Adapter) headers() map[string]string {
	return map[string]string{"api-key": a.cfg.APIKey}
}

// deploymentPath builds {model}/chat/completions?api-version=... under
// the openai/deployments/{deployment} namespace.
func (a *Adapter) deploymentPath(model string) string {
	return fmt.Sprintf("/openai/deployments/%s/chat/completions?api-version=%s", model, a.cfg.APIVersion)
}

func (a *Adapter) wireRequest(req *gwtypes.ChatRequest) (*gwtypes.ChatRequest, string) {
	model := req.EffectiveModel(a.cfg.ModelID)
	out := *req
	out.Model = model
	return &out, model
}

func (a *Adapter) ChatJSON(ctx context.Context, req *gwtypes.ChatRequest) (int, []byte, error) {
	wireReq, model := a.wireRequest(req)
	return a.client.Post(ctx, a.deploymentPath(model), wireReq, a.headers())
}

func (a *Adapter) ChatStream(ctx context.Context, req *gwtypes.ChatRequest) (io.ReadCloser, error) {
	wireReq, model := a.wireRequest(req)
	return a.client.PostStream(ctx, a.deploymentPath(model), wireReq, a.headers())
}
