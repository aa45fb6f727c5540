package loadbalancer

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// InstanceStatus is one pool member's introspectable state, served by
// the /lb/status endpoint.
type InstanceStatus struct {
	Name           string  `json:"name"`
	Weight         int     `json:"weight"`
	Healthy        bool    `json:"healthy"`
	BreakerState   string  `json:"breaker_state"`
	ActiveRequests int     `json:"active_requests"`
	LatencyMs      float64 `json:"latency_ms"`
}

// StatusMux builds a small echo server exposing GET /lb/status: a
// snapshot of every pool member's health, breaker state, in-flight
// count and EWMA latency. Grounded on the teacher's
// examples/echo-server/main.go wiring (echo.New, middleware.Logger/
// Recover, a JSON status handler), generalized from a single model's
// health line to one row per pool member — mounted alongside chi in
// internal/server rather than replacing it, since the hot
// chat-completions path stays on chi.
func StatusMux(pool *Pool) http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/lb/status", func(c echo.Context) error {
		instances := pool.Instances()
		statuses := make([]InstanceStatus, 0, len(instances))
		for _, inst := range instances {
			statuses = append(statuses, InstanceStatus{
				Name:           inst.Name,
				Weight:         inst.Weight,
				Healthy:        inst.Healthy(),
				BreakerState:   inst.Breaker.State().String(),
				ActiveRequests: inst.ActiveRequests(),
				LatencyMs:      inst.LatencyMs(),
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"instances": statuses,
			"timestamp": time.Now().Unix(),
		})
	})

	return e
}
