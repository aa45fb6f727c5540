// Package lightllm implements the LightLLM backend variant. Unlike the
// other variants, LightLLM speaks a flat generate/prompt wire format
// rather than a chat-message array, so this adapter flattens the
// message list into a role-marker prompt before the call and
// synthesizes an OpenAI-shaped envelope from the raw generated text
// afterward.
package lightllm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/llmgateway/gatewayd/pkg/adapters/internal/wire"
	"github.com/llmgateway/gatewayd/pkg/gwerrors"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Config configures the LightLLM adapter.
type Config struct {
	BaseURL string
	Token   string
	ModelID string
}

// Adapter is the LightLLM backend variant.
type Adapter struct {
	cfg    Config
	client *wire.Client
}

// New builds a LightLLM adapter.
func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg, client: &wire.Client{BaseURL: cfg.BaseURL}}
}

func (a *Adapter) Name() string            { return "lightllm" }
func (a *Adapter) BaseURL() string         { return a.cfg.BaseURL }
func (a *Adapter) ModelID() string         { return a.cfg.ModelID }
func (a *Adapter) HasAuth() bool           { return a.cfg.Token != "" }
func (a *Adapter) SupportsStreaming() bool { return false }

func (a *Adapter) headers() map[string]string {
	if a.cfg.Token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + a.cfg.Token}
}

// path dispatches between LightLLM's native /generate endpoint and an
// OpenAI-shaped path, based on whether the configured base already
// carries a /v1 segment.
func (a *Adapter) path() string {
	if strings.Contains(a.cfg.BaseURL, "/v1") {
		return "/chat/completions"
	}
	return "/generate"
}

// flattenPrompt renders the message list as a role-marker prompt,
// dropping tool-role messages (LightLLM has no tool-call concept) and
// preallocating the builder to the exact worst-case size so no
// intermediate reallocation occurs for typical conversations.
func flattenPrompt(messages []gwtypes.Message) string {
	size := 25
	for _, m := range messages {
		size += len(m.Role) + len(m.Content.Flatten()) + 25
	}

	var b strings.Builder
	b.Grow(size)
	for _, m := range messages {
		if m.Role == gwtypes.RoleTool {
			slog.Debug("lightllm: dropping tool-role message from prompt", "name", m.Name)
			continue
		}
		b.WriteString("<|")
		b.WriteString(string(m.Role))
		b.WriteString("|>\n")
		b.WriteString(m.Content.Flatten())
		b.WriteString("\n")
	}
	b.WriteString("<|assistant|> ")
	return b.String()
}

type generateRequest struct {
	Prompt           string  `json:"prompt"`
	MaxNewTokens     int     `json:"max_new_tokens"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	PresencePenalty  float64 `json:"presence_penalty"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
}

func (a *Adapter) wireRequest(req *gwtypes.ChatRequest) generateRequest {
	g := generateRequest{
		Prompt:           flattenPrompt(req.Messages),
		MaxNewTokens:     256,
		Temperature:      1.0,
		TopP:             1.0,
		PresencePenalty:  0,
		FrequencyPenalty: 0,
	}
	if req.MaxTokens != nil {
		g.MaxNewTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		g.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		g.TopP = *req.TopP
	}
	if req.PresencePenalty != nil {
		g.PresencePenalty = *req.PresencePenalty
	}
	if req.FrequencyPenalty != nil {
		g.FrequencyPenalty = *req.FrequencyPenalty
	}
	return g
}

type generateResponse struct {
	Text string `json:"text"`
}

func (a *Adapter) ChatJSON(ctx context.Context, req *gwtypes.ChatRequest) (int, []byte, error) {
	status, body, err := a.client.Post(ctx, a.path(), a.wireRequest(req), a.headers())
	if err != nil {
		return status, body, err
	}
	if status >= 400 {
		return status, body, nil
	}

	shaped, err := a.shapeResponse(req, body)
	if err != nil {
		return 0, nil, err
	}
	return status, shaped, nil
}

// shapeResponse reads LightLLM's {"text": "..."} envelope and
// synthesizes an OpenAI-shaped chat completion, estimating usage at
// roughly four characters per token since LightLLM's /generate
// endpoint reports none.
func (a *Adapter) shapeResponse(req *gwtypes.ChatRequest, body []byte) ([]byte, error) {
	var raw generateResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, gwerrors.Wrap(gwerrors.Serialization, "lightllm: decode generate response", err)
	}

	model := req.EffectiveModel(a.cfg.ModelID)
	now := time.Now()
	fp := gwtypes.ComputeFingerprint(req)
	id := fmt.Sprintf("chatcmpl-%d-%s", now.Unix(), strconv.FormatUint(uint64(fp), 16))

	promptChars := 0
	for _, m := range req.Messages {
		promptChars += len(m.Content.Flatten())
	}

	usage := &gwtypes.Usage{
		PromptTokens:     estimateTokens(promptChars),
		CompletionTokens: estimateTokens(len(raw.Text)),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	choice := gwtypes.Choice{
		Index: 0,
		Message: gwtypes.Message{
			Role:    gwtypes.RoleAssistant,
			Content: gwtypes.Content{Text: &raw.Text},
		},
		FinishReason: gwtypes.FinishStop,
	}

	resp := gwtypes.NewChatResponse(id, model, now.Unix(), []gwtypes.Choice{choice}, usage)
	out, err := json.Marshal(resp)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.Serialization, "lightllm: marshal shaped response", err)
	}
	return out, nil
}

func estimateTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	return chars / 4
}

// ChatStream is unsupported: LightLLM's /generate endpoint has no
// streaming mode in this adapter, so the orchestrator must fall back
// to synthesized streaming over ChatJSON.
func (a *Adapter) ChatStream(ctx context.Context, req *gwtypes.ChatRequest) (io.ReadCloser, error) {
	return nil, gwerrors.New(gwerrors.BadRequest, "lightllm backend does not support native streaming")
}
