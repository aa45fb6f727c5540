// Package orchestrator implements the gateway's top-of-funnel request
// handler: decode, validate, authorize, rate-limit, cache, dispatch,
// record metrics. Grounded on the teacher's examples/chi-server/main.go
// handler-wiring idiom, generalized from a single in-process model call
// to the full cross-cutting pipeline. App holds every shared component
// as a field (rate limiter, cache, adapter, load-balancer pool, metrics
// counters) rather than as package-level globals, per the "application
// state is a value passed to every handler" design note.
package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/llmgateway/gatewayd/pkg/adapters"
	"github.com/llmgateway/gatewayd/pkg/cache"
	"github.com/llmgateway/gatewayd/pkg/gwconfig"
	"github.com/llmgateway/gatewayd/pkg/gwerrors"
	"github.com/llmgateway/gatewayd/pkg/gwmetrics"
	"github.com/llmgateway/gatewayd/pkg/gwtypes"
	"github.com/llmgateway/gatewayd/pkg/loadbalancer"
	"github.com/llmgateway/gatewayd/pkg/ratelimit"
	"github.com/llmgateway/gatewayd/pkg/streamcore"
	"github.com/llmgateway/gatewayd/pkg/tools"
	"github.com/llmgateway/gatewayd/pkg/translate"
)

// cacheTemperatureEpsilon is the "temperature <= epsilon" cutoff for
// cache eligibility (spec.md §4.L step 5, default 0.0).
const cacheTemperatureEpsilon = 0.0

// App wires every cross-cutting component the orchestrator's handlers
// depend on. Pool is optional: nil means every dispatch calls Adapter
// directly (still through RetryConfig), a configured Pool additionally
// gates concurrency and circuit-breaker state per backend instance.
type App struct {
	Config *gwconfig.Config

	Adapter adapters.Adapter
	Pool    *loadbalancer.Pool

	RateLimiter *ratelimit.Limiter
	Cache       *cache.Cache
	ToolValidator *tools.Validator
	Executor      *tools.Executor

	Counters *gwmetrics.Counters
	Logger   *slog.Logger

	RetryConfig loadbalancer.RetryConfig
}

// New builds an App with a default retry policy; callers may override
// RetryConfig after construction.
func New(cfg *gwconfig.Config, adapter adapters.Adapter) *App {
	return &App{
		Config:      cfg,
		Adapter:     adapter,
		Counters:    gwmetrics.NewCounters(nil),
		Logger:      slog.Default(),
		RetryConfig: loadbalancer.DefaultRetryConfig(),
	}
}

// requestDeadline computes the single monotonic deadline for one call,
// honored by every downstream I/O operation (spec.md §4.L).
func (a *App) requestDeadline(stream bool) time.Duration {
	if stream {
		return time.Duration(a.Config.StreamingTimeoutSeconds) * time.Second
	}
	return time.Duration(a.Config.HTTPClientTimeoutSeconds) * time.Second
}

// Authorize checks apiKey against the configured allow-list when
// api-key validation is enabled; bypass-path exemption is the router's
// responsibility (internal/server), not the orchestrator's. A key is
// valid if it equals the configured backend token, appears in the
// configured VALID_API_KEYS list, is one of the fixed development keys
// when Production is false, or begins with "sk-" and is longer than 20
// characters (spec.md §6's demonstration policy).
func (a *App) Authorize(apiKey string) error {
	if !a.Config.APIKeyValidationOn {
		return nil
	}
	if apiKey == "" {
		return gwerrors.New(gwerrors.Unauthorized, "missing or invalid API key")
	}
	if apiKey == a.Config.BackendToken {
		return nil
	}
	for _, k := range a.Config.ValidAPIKeys {
		if k == apiKey {
			return nil
		}
	}
	if !a.Config.Production {
		for _, k := range devAPIKeys {
			if k == apiKey {
				return nil
			}
		}
	}
	if strings.HasPrefix(apiKey, "sk-") && len(apiKey) > 20 {
		return nil
	}
	return gwerrors.New(gwerrors.Unauthorized, "missing or invalid API key")
}

// devAPIKeys are accepted only when Production is false, matching
// spec.md §6's "dev keys in development" auth carve-out.
var devAPIKeys = []string{"dev-key", "test-key"}

// ChatCompletions serves POST /v1/chat/completions.
func (a *App) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	var req gwtypes.ChatRequest
	dec := json.NewDecoder(r.Body)
	if a.Config.StrictValidation {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&req); err != nil {
		a.writeError(w, gwerrors.Wrap(gwerrors.BadRequest, "malformed request body", err))
		a.recordOutcome(r.Context(), requestID, start, false)
		return
	}

	a.handle(w, r, &req, apiKeyFromHeader(r, a.Config.APIKeyHeader), requestID, start)
}

// Messages serves POST /v1/messages (Anthropic Messages dialect).
func (a *App) Messages(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	var areq translate.AnthropicRequest
	if err := json.NewDecoder(r.Body).Decode(&areq); err != nil {
		a.writeError(w, gwerrors.Wrap(gwerrors.BadRequest, "malformed request body", err))
		a.recordOutcome(r.Context(), requestID, start, false)
		return
	}

	req := translate.AnthropicToOpenAI(&areq)
	a.handleDialect(w, r, req, apiKeyFromHeader(r, a.Config.APIKeyHeader), requestID, start, true)
}

// apiKeyFromHeader reads the configured custom header first, falling
// back to "Authorization: Bearer <key>" per spec.md §6.
func apiKeyFromHeader(r *http.Request, header string) string {
	if v := r.Header.Get(header); v != "" {
		return v
	}
	if v := r.Header.Get("Authorization"); v != "" {
		return strings.TrimPrefix(v, "Bearer ")
	}
	return ""
}

func (a *App) handle(w http.ResponseWriter, r *http.Request, req *gwtypes.ChatRequest, apiKey, requestID string, start time.Time) {
	a.handleDialect(w, r, req, apiKey, requestID, start, false)
}

// handleDialect runs the full 7-step contract; anthropic selects the
// response/stream shaping used for /v1/messages. requestID (assigned
// by the calling handler) is attached to every log line, so a single
// request can be traced across the gateway's logs independent of any
// ID the backend itself assigns to the completion (spec.md §6/§9's
// logging and observability surface).
func (a *App) handleDialect(w http.ResponseWriter, r *http.Request, req *gwtypes.ChatRequest, apiKey, requestID string, start time.Time, anthropic bool) {
	ctx, cancel := context.WithTimeout(r.Context(), a.requestDeadline(req.Stream))
	defer cancel()

	// 2. Validate.
	if err := req.Validate(a.Config.StrictValidation); err != nil {
		a.writeError(w, gwerrors.Wrap(gwerrors.BadRequest, err.Error(), err))
		a.recordOutcome(ctx, requestID, start, false)
		return
	}
	if a.ToolValidator != nil {
		if err := a.ToolValidator.ValidateToolChoice(req); err != nil {
			a.writeError(w, err)
			a.recordOutcome(ctx, requestID, start, false)
			return
		}
	}

	// 3. Authorize.
	if err := a.Authorize(apiKey); err != nil {
		a.writeError(w, err)
		a.recordOutcome(ctx, requestID, start, false)
		return
	}

	// 4. Rate-limit.
	if a.Config.EnableRateLimiting && a.RateLimiter != nil {
		tenant := req.User
		if tenant == "" {
			tenant = apiKey
		}
		tokens := ratelimit.EstimateTokens(req)
		if err := a.RateLimiter.Allow(tenant, ratelimit.PriorityNormal, tokens); err != nil {
			a.Counters.RecordRateLimited()
			a.writeError(w, err)
			a.recordOutcome(ctx, requestID, start, false)
			return
		}
	}

	// 5. Cache (non-streaming, non-/deterministic-sampled only).
	cacheEligible := a.Config.EnableCaching && a.Cache != nil && !req.Stream &&
		(req.Temperature == nil || *req.Temperature <= cacheTemperatureEpsilon || a.Config.CacheSampledOutputs)
	var fp gwtypes.Fingerprint
	if cacheEligible {
		fp = gwtypes.ComputeFingerprint(req)
		if cached, ok := a.Cache.Get(fp); ok {
			a.Counters.RecordCacheHit()
			if anthropic {
				a.writeJSON(w, http.StatusOK, translate.OpenAIToAnthropic(cached))
			} else {
				a.writeJSON(w, http.StatusOK, cached)
			}
			a.recordOutcome(ctx, requestID, start, true)
			return
		}
		a.Counters.RecordCacheMiss()
	}

	// 6. Dispatch.
	if req.Stream {
		a.dispatchStream(ctx, w, req, anthropic)
		a.recordOutcome(ctx, requestID, start, true)
		return
	}

	resp, err := a.dispatchJSON(ctx, req)
	if err != nil {
		a.Counters.RecordBackendFailure()
		a.writeError(w, err)
		a.recordOutcome(ctx, requestID, start, false)
		return
	}

	if cacheEligible {
		approxBytes := approxResponseSize(resp)
		a.Cache.Put(fp, resp, approxBytes)
	}

	if anthropic {
		a.writeJSON(w, http.StatusOK, translate.OpenAIToAnthropic(resp))
	} else {
		a.writeJSON(w, http.StatusOK, resp)
	}
	a.recordOutcome(ctx, requestID, start, true)
}

// maxToolIterations bounds the execute-then-reinvoke loop (spec.md
// §4.H, §8 scenario 6) against a backend that keeps emitting tool
// calls forever.
const maxToolIterations = 8

// dispatchJSON performs the non-streaming upstream call and, when the
// backend's reply carries tool_calls and an Executor is wired, runs
// spec.md §4.L step 6's execute-then-reinvoke loop: each call is
// executed, its result is appended as a tool-role message, and the
// backend is called again with the extended conversation, until the
// backend stops requesting tool calls or maxToolIterations is reached.
func (a *App) dispatchJSON(ctx context.Context, req *gwtypes.ChatRequest) (*gwtypes.ChatResponse, error) {
	resp, err := a.dispatchOnce(ctx, req)
	if err != nil {
		return nil, err
	}

	for i := 0; i < maxToolIterations; i++ {
		if a.Executor == nil || len(resp.Choices) == 0 {
			return resp, nil
		}
		choice := resp.Choices[0]
		if choice.FinishReason != gwtypes.FinishToolCalls || len(choice.Message.ToolCalls) == 0 {
			return resp, nil
		}

		req.Messages = append(req.Messages, choice.Message)
		for _, tc := range choice.Message.ToolCalls {
			req.Messages = append(req.Messages, gwtypes.Message{
				Role:       gwtypes.RoleTool,
				ToolCallID: tc.ID,
				Content:    gwtypes.Content{Text: strPtr(a.executeToolCall(ctx, tc))},
			})
		}

		resp, err = a.dispatchOnce(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// executeToolCall runs one tool call through the executor and returns
// its JSON-encoded result, or a JSON-encoded error object when
// execution fails, for splicing into a tool-role message's content.
func (a *App) executeToolCall(ctx context.Context, tc gwtypes.ToolCall) string {
	result, err := a.Executor.Execute(ctx, tc)
	if err != nil {
		b, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(b)
	}
	b, err := json.Marshal(result.Output)
	if err != nil {
		return "null"
	}
	return string(b)
}

func strPtr(s string) *string { return &s }

// dispatchOnce performs a single non-streaming upstream call, optionally
// through the load-balancer pool, with the configured retry policy.
// Each attempt re-picks a pool instance so a newly-opened breaker on
// one member doesn't block retries against the others.
func (a *App) dispatchOnce(ctx context.Context, req *gwtypes.ChatRequest) (*gwtypes.ChatResponse, error) {
	var status int
	var body []byte

	err := loadbalancer.Do(ctx, a.RetryConfig, func(ctx context.Context) error {
		var inst *loadbalancer.Instance
		release := func() {}
		if a.Pool != nil {
			picked, rel, perr := a.Pool.Pick()
			if perr != nil {
				return perr
			}
			inst, release = picked, rel
		}
		defer release()

		callStart := time.Now()
		s, b, cerr := a.Adapter.ChatJSON(ctx, req)

		if inst != nil {
			if cerr != nil {
				inst.Breaker.RecordFailure()
			} else {
				inst.Breaker.RecordSuccess()
				inst.RecordLatency(time.Since(callStart))
			}
		}

		if cerr != nil {
			return cerr
		}
		status, body = s, b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, gwerrors.New(gwerrors.Upstream, "upstream returned an error status")
	}

	var resp gwtypes.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, gwerrors.Wrap(gwerrors.Serialization, "could not decode upstream response", err)
	}
	return &resp, nil
}

// dispatchStream performs the streaming dispatch: passthrough when the
// adapter supports native streaming, synthesized from a single
// non-streaming call otherwise. anthropic remaps the resulting chunks
// to the Anthropic event sequence.
func (a *App) dispatchStream(ctx context.Context, w http.ResponseWriter, req *gwtypes.ChatRequest, anthropic bool) {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	writer := streamcore.NewWriter(w)

	var s *streamcore.Stream
	release := func() {}
	if a.Pool != nil {
		if _, rel, err := a.Pool.Pick(); err == nil {
			release = rel
		}
	}

	if a.Adapter.SupportsStreaming() {
		upstream, err := a.Adapter.ChatStream(ctx, req)
		if err != nil {
			release()
			a.writeError(w, err)
			return
		}
		s = streamcore.Passthrough(ctx, upstream, release)
	} else {
		resp, err := a.dispatchJSON(ctx, req)
		release()
		if err != nil {
			a.writeError(w, err)
			return
		}
		s = streamcore.Synthesized(ctx, resp, func() {})
	}

	if anthropic {
		a.relayAnthropicStream(s, writer, flusher)
		return
	}

	for ev := range s.Events {
		_ = writer.WriteEvent(ev)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// relayAnthropicStream consumes the gateway's canonical OpenAI-shaped
// chunk stream and remaps each chunk to the Anthropic event sequence
// via translate.AnthropicStreamRemapper.
func (a *App) relayAnthropicStream(s *streamcore.Stream, writer *streamcore.Writer, flusher http.Flusher) {
	remapper := &translate.AnthropicStreamRemapper{}

	for ev := range s.Events {
		if ev.IsDone() || ev.Event == "ping" {
			continue
		}
		var chunk gwtypes.ChatCompletionChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			continue
		}
		for _, out := range remapper.Remap(&chunk) {
			_ = writer.WriteEvent(out)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func approxResponseSize(resp *gwtypes.ChatResponse) int {
	b, err := json.Marshal(resp)
	if err != nil {
		return 0
	}
	return len(b)
}

func (a *App) recordOutcome(ctx context.Context, requestID string, start time.Time, ok bool) {
	if a.Counters != nil {
		a.Counters.RecordRequest(ctx, ok, time.Since(start))
	}
	if a.Logger != nil {
		a.Logger.Info("request completed", "request_id", requestID, "ok", ok, "duration", time.Since(start))
	}
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	ge, ok := gwerrors.As(err)
	if !ok {
		ge = gwerrors.New(gwerrors.Internal, "internal error")
	}
	w.Header().Set("Content-Type", "application/json")
	if ge.RetryAfter != nil {
		w.Header().Set("Retry-After", strconv.Itoa(*ge.RetryAfter))
	}
	w.WriteHeader(ge.StatusCode())
	_ = json.NewEncoder(w).Encode(ge.Body())
}
