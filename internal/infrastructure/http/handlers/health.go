package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/customer-api/internal/core/ports"
)

const probeTimeout = 3 * time.Second

// PingFunc lets a bare function stand in for a ports.Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type checkResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type probeResponse struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks,omitempty"`
}

// ProbeHandler serves /health/live and /health/ready.
type ProbeHandler struct {
	checks map[string]ports.Pinger
}

func NewProbeHandler(checks map[string]ports.Pinger) *ProbeHandler {
	return &ProbeHandler{checks: checks}
}

// Live answers as long as the process can serve HTTP.
func (h *ProbeHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, probeResponse{Status: "up"})
}

// Ready pings every backend concurrently; any failure turns the probe into a 503.
func (h *ProbeHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), probeTimeout)
	defer cancel()

	results := h.run(ctx)

	resp := probeResponse{Status: "up", Checks: results}
	code := http.StatusOK
	for _, r := range results {
		if r.Status != "up" {
			resp.Status = "down"
			code = http.StatusServiceUnavailable
			break
		}
	}
	return c.JSON(code, resp)
}

func (h *ProbeHandler) run(ctx context.Context) map[string]checkResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]checkResult, len(h.checks))
	)
	for name, p := range h.checks {
		wg.Add(1)
		go func(name string, p ports.Pinger) {
			defer wg.Done()
			start := time.Now()
			err := p.Ping(ctx)
			r := checkResult{Status: "up", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				r.Status = "down"
				r.Error = err.Error()
			}
			mu.Lock()
			results[name] = r
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()
	return results
}
