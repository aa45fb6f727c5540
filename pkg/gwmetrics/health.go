package gwmetrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// BackendProber issues a minimal chat request against a backend to
// confirm it's reachable; implemented by pkg/adapters.Adapter in
// production and by a fake in tests.
type BackendProber interface {
	Name() string
	ChatJSON(ctx context.Context, req *gwtypes.ChatRequest) (int, []byte, error)
}

const deepProbeTimeout = 5 * time.Second

// Version is the gateway's reported build version; overridden at link
// time via -ldflags in production builds.
var Version = "dev"

// HealthStatus is the /health response shape.
type HealthStatus struct {
	Status    string                   `json:"status"`
	Service   string                   `json:"service,omitempty"`
	Version   string                   `json:"version,omitempty"`
	Timestamp int64                    `json:"timestamp,omitempty"`
	Backends  map[string]BackendHealth `json:"backends,omitempty"`
}

// BackendHealth reports one backend's most recent probe outcome.
type BackendHealth struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Handler serves GET /health: a shallow 200 when deep probing is
// disabled, or a per-backend probe result when it's enabled.
func Handler(counters *Counters, probers []BackendProber, deep bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{Status: "ok", Service: "gatewayd", Version: Version, Timestamp: time.Now().Unix()}

		if deep && len(probers) > 0 {
			status.Backends = probeAll(r.Context(), probers)
			for _, b := range status.Backends {
				if !b.Healthy {
					status.Status = "degraded"
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	}
}

// probeAll issues a max_tokens=1 chat request to every backend under a
// bounded timeout, concurrently.
func probeAll(ctx context.Context, probers []BackendProber) map[string]BackendHealth {
	results := make(map[string]BackendHealth, len(probers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range probers {
		wg.Add(1)
		go func(p BackendProber) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, deepProbeTimeout)
			defer cancel()

			maxTokens := 1
			_, _, err := p.ChatJSON(probeCtx, &gwtypes.ChatRequest{
				Messages:  []gwtypes.Message{{Role: gwtypes.RoleUser, Content: gwtypes.Content{Text: strPtr("ping")}}},
				MaxTokens: &maxTokens,
			})

			mu.Lock()
			if err != nil {
				results[p.Name()] = BackendHealth{Healthy: false, Error: err.Error()}
			} else {
				results[p.Name()] = BackendHealth{Healthy: true}
			}
			mu.Unlock()
		}(p)
	}

	wg.Wait()
	return results
}

func strPtr(s string) *string { return &s }
