package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llmgateway/gatewayd/pkg/adapters/direct"
	"github.com/llmgateway/gatewayd/pkg/gwconfig"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
	"github.com/llmgateway/gatewayd/pkg/orchestrator"
)

type okCompleter struct{}

func (okCompleter) Complete(ctx context.Context, req *gwtypes.ChatRequest) (*gwtypes.ChatResponse, error) {
	text := "hi"
	return &gwtypes.ChatResponse{
		ID: "x", Model: "m",
		Choices: []gwtypes.Choice{{Message: gwtypes.Message{Role: gwtypes.RoleAssistant, Content: gwtypes.Content{Text: &text}}, FinishReason: gwtypes.FinishStop}},
	}, nil
}

func testConfig() *gwconfig.Config {
	cfg := gwconfig.Default()
	cfg.EnableRateLimiting = false
	cfg.EnableCaching = false
	cfg.HTTPClientTimeoutSeconds = 5
	cfg.StreamingTimeoutSeconds = 5
	return cfg
}

func chatBody() []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"messages": []map[string]string{{"role": "user", "content": "hello"}},
	})
	return b
}

func TestServer_HealthBypassesAuth(t *testing.T) {
	cfg := testConfig()
	cfg.APIKeyValidationOn = true
	app := orchestrator.New(cfg, direct.New(direct.Config{ModelID: "m", Completer: okCompleter{}}))
	handler := New(app, cfg, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ChatRouteRejectsMissingAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKeyValidationOn = true
	cfg.ValidAPIKeys = []string{"secret"}
	app := orchestrator.New(cfg, direct.New(direct.Config{ModelID: "m", Completer: okCompleter{}}))
	handler := New(app, cfg, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(chatBody()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_ChatRouteAcceptsValidAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKeyValidationOn = true
	cfg.ValidAPIKeys = []string{"secret"}
	app := orchestrator.New(cfg, direct.New(direct.Config{ModelID: "m", Completer: okCompleter{}}))
	handler := New(app, cfg, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(chatBody()))
	req.Header.Set(cfg.APIKeyHeader, "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ChatRouteSkipsAuthWhenValidationDisabled(t *testing.T) {
	cfg := testConfig()
	app := orchestrator.New(cfg, direct.New(direct.Config{ModelID: "m", Completer: okCompleter{}}))
	handler := New(app, cfg, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(chatBody()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_CORSPreflightOnChatRoute(t *testing.T) {
	cfg := testConfig()
	app := orchestrator.New(cfg, direct.New(direct.Config{ModelID: "m", Completer: okCompleter{}}))
	handler := New(app, cfg, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat/completions", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_AdminProxyMountedWhenProvided(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	cfg := testConfig()
	app := orchestrator.New(cfg, direct.New(direct.Config{ModelID: "m", Completer: okCompleter{}}))
	handler := New(app, cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), nil)

	req := httptest.NewRequest(http.MethodGet, "/ui/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
