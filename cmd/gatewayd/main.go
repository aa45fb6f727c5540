// Command gatewayd is the gateway's process entrypoint: load
// configuration, wire every cross-cutting component onto a single
// orchestrator.App, and serve. Grounded on the teacher's
// examples/chi-server/main.go bootstrap shape (env reads, a package
// var for shared state, log.Fatal on startup failure), generalized
// from one hardcoded OpenAI model to the full backend-selection and
// cross-cutting wiring the gateway needs.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/llmgateway/gatewayd/internal/server"
	"github.com/llmgateway/gatewayd/pkg/adapters"
	"github.com/llmgateway/gatewayd/pkg/cache"
	"github.com/llmgateway/gatewayd/pkg/gwconfig"
	"github.com/llmgateway/gatewayd/pkg/gwmetrics"
	"github.com/llmgateway/gatewayd/pkg/loadbalancer"
	"github.com/llmgateway/gatewayd/pkg/orchestrator"
	"github.com/llmgateway/gatewayd/pkg/ratelimit"
	"github.com/llmgateway/gatewayd/pkg/tools"

	"github.com/llmgateway/gatewayd/pkg/adminproxy"
)

// lbStrategyKind maps gwconfig's hyphenated strategy names to
// loadbalancer's underscored StrategyKind constants.
func lbStrategyKind(s gwconfig.LBStrategy) loadbalancer.StrategyKind {
	switch s {
	case gwconfig.LBWeighted:
		return loadbalancer.StrategyWeighted
	case gwconfig.LBLeastConnections:
		return loadbalancer.StrategyLeastConns
	case gwconfig.LBHealthBased:
		return loadbalancer.StrategyHealthBased
	case gwconfig.LBLatencyBased:
		return loadbalancer.StrategyLatencyBased
	default:
		return loadbalancer.StrategyRoundRobin
	}
}

func main() {
	cfg := gwconfig.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	adapter := adapters.Select(adapters.Config{
		BackendURL:         cfg.BackendURL,
		BackendType:        string(cfg.BackendType),
		ModelID:            cfg.ModelID,
		BackendToken:       cfg.BackendToken,
		HTTPTimeoutSeconds: cfg.HTTPClientTimeoutSeconds,
	})

	app := orchestrator.New(cfg, adapter)
	app.Logger = slog.Default()

	if cfg.EnableRateLimiting {
		app.RateLimiter = ratelimit.New(ratelimit.Limits{
			RequestsPerSecond: float64(cfg.RateLimitRequestsPerMinute) / 60,
			RequestsBurst:     cfg.RateLimitBurstSize,
			TokensPerSecond:   1 << 20, // effectively request-bound; token ceilings are per-tenant
			TokensBurst:       1 << 20,
			TokensPerMinute:   1 << 24,
			TokensPerMinuteBurst: 1 << 24,
		})
	}

	if cfg.EnableCaching {
		app.Cache = cache.New(cache.Options{
			Strategy: cache.Strategy(cfg.CacheStrategy),
			TTL:      time.Duration(cfg.CacheTTLSeconds) * time.Second,
			MaxSize:  cfg.CacheMaxSize,
		})
		defer app.Cache.Close()
	}

	registry := tools.NewRegistry()
	app.ToolValidator = tools.NewValidator(registry)
	app.Executor = tools.NewExecutor(0)

	// A single pool member wrapping the one configured backend: this
	// still exercises the breaker/EWMA/concurrency-limit machinery even
	// without multiple BACKEND_URLs to balance across.
	breaker := loadbalancer.NewBreakerWithConfig(cfg.CircuitBreakerFailureThreshold, time.Duration(cfg.CircuitBreakerOpenSeconds)*time.Second)
	instance := loadbalancer.NewInstanceWithBreaker(adapter.Name(), 1, cfg.PerBackendConcurrencyLimit, breaker)
	app.Pool = loadbalancer.NewPool([]*loadbalancer.Instance{instance}, lbStrategyKind(cfg.LoadBalancerStrategy))
	app.RetryConfig.MaxRetries = cfg.RetryAttempts

	var adminProxy http.Handler
	if cfg.AdminProxyTargetURL != "" {
		target, err := url.Parse(cfg.AdminProxyTargetURL)
		if err != nil {
			log.Fatalf("invalid admin_proxy_target_url: %v", err)
		}
		adminProxy = adminproxy.New(target)
	}

	var probers []gwmetrics.BackendProber
	if cfg.EnableHealthChecks {
		if p, ok := adapter.(gwmetrics.BackendProber); ok {
			probers = append(probers, p)
		}
	}

	handler := server.New(app, cfg, adminProxy, probers)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("gatewayd listening", "addr", addr, "backend", cfg.BackendURL, "backend_type", cfg.BackendType)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
