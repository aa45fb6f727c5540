// Package adapters selects and exposes the backend-adapter interface
// every wire-format variant (LightLLM, OpenAI-compatible, vLLM, Azure,
// Bedrock, Custom, Direct) implements, plus the URL-pattern selector
// that maps configuration to exactly one variant.
package adapters

import (
	"context"
	"io"
	"strings"

	"github.com/llmgateway/gatewayd/pkg/adapters/azure"
	"github.com/llmgateway/gatewayd/pkg/adapters/bedrock"
	"github.com/llmgateway/gatewayd/pkg/adapters/custom"
	"github.com/llmgateway/gatewayd/pkg/adapters/direct"
	"github.com/llmgateway/gatewayd/pkg/adapters/lightllm"
	"github.com/llmgateway/gatewayd/pkg/adapters/openaicompat"
	"github.com/llmgateway/gatewayd/pkg/adapters/vllm"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Adapter is the uniform interface every backend variant implements
// (spec.md §4.D).
type Adapter interface {
	Name() string
	BaseURL() string
	ModelID() string
	HasAuth() bool
	SupportsStreaming() bool

	// ChatJSON performs a non-streaming upstream call, returning the raw
	// response body.
	ChatJSON(ctx context.Context, req *gwtypes.ChatRequest) (status int, body []byte, err error)

	// ChatStream performs a streaming upstream call, returning the raw
	// response body stream. The caller must Close it.
	ChatStream(ctx context.Context, req *gwtypes.ChatRequest) (io.ReadCloser, error)
}

// Config is the subset of gwconfig.Config the selector and constructors
// need; kept narrow here so this package doesn't import gwconfig (which
// would create an import cycle once gwconfig grows adapter-facing
// helpers).
type Config struct {
	BackendURL   string
	BackendType  string
	ModelID      string
	BackendToken string

	HTTPTimeoutSeconds int
}

// Select maps configuration to exactly one adapter variant by the first
// matching URL-pattern rule (spec.md §4.E); this total, ordered switch
// is what makes adapter selection exhaustive and keeps it a closed sum
// type rather than an open plugin registry (spec.md §9).
func Select(cfg Config) Adapter {
	url := strings.ToLower(cfg.BackendURL)

	switch {
	case strings.Contains(url, "azure.com") || strings.Contains(url, "azure.openai"):
		return azure.New(azure.Config{
			BaseURL:  cfg.BackendURL,
			APIKey:   cfg.BackendToken,
			ModelID:  cfg.ModelID,
		})
	case strings.Contains(url, "bedrock") || strings.Contains(url, "amazonaws.com"):
		return bedrock.New(bedrock.Config{BaseURL: cfg.BackendURL, ModelID: cfg.ModelID})
	case strings.Contains(url, "vllm"):
		return vllm.New(vllm.Config{BaseURL: cfg.BackendURL, Token: cfg.BackendToken, ModelID: cfg.ModelID})
	case strings.Contains(url, "/v1") || strings.Contains(url, "openai.com"):
		return openaicompat.New(openaicompat.Config{BaseURL: cfg.BackendURL, Token: cfg.BackendToken, ModelID: cfg.ModelID})
	case url == "direct":
		return direct.New(direct.Config{ModelID: cfg.ModelID})
	case strings.Contains(url, "lightllm") || strings.Contains(url, "localhost"):
		return lightllm.New(lightllm.Config{BaseURL: cfg.BackendURL, Token: cfg.BackendToken, ModelID: cfg.ModelID})
	default:
		return custom.New(custom.Config{BaseURL: cfg.BackendURL, Token: cfg.BackendToken, ModelID: cfg.ModelID})
	}
}
