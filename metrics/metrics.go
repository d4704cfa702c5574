// Package metrics exposes Prometheus metrics and a health endpoint
// for the funding arbitrage bot.
package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics for the bot. Each Metrics value
// carries its own registry so tests can create them freely.
type Metrics struct {
	CyclesTotal     prometheus.Counter
	QuoteFailures   prometheus.Counter
	HedgesOpened    prometheus.Counter
	HedgesFailed    prometheus.Counter
	OrdersRejected  prometheus.Counter
	UnwindAttempts  prometheus.Counter
	UnwindFailures  prometheus.Counter
	OpenPositions   prometheus.Gauge
	TopFundingRate  prometheus.Gauge

	registry *prometheus.Registry
}

// New registers and returns all bot metrics.
func New() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundingbot_cycles_total",
			Help: "Total control loop cycles executed",
		}),
		QuoteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundingbot_quote_failures_total",
			Help: "Cycles skipped because the quote snapshot failed",
		}),
		HedgesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundingbot_hedges_opened_total",
			Help: "Hedges where both legs were accepted",
		}),
		HedgesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundingbot_hedges_failed_total",
			Help: "Hedge attempts that did not result in a position",
		}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundingbot_orders_rejected_total",
			Help: "Orders rejected or failed at submission",
		}),
		UnwindAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundingbot_unwind_attempts_total",
			Help: "Emergency close orders submitted after a failed second leg",
		}),
		UnwindFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fundingbot_unwind_failures_total",
			Help: "Emergency closes that failed, leaving an unhedged leg",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fundingbot_open_positions",
			Help: "Currently open hedge positions",
		}),
		TopFundingRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fundingbot_top_funding_rate_apr",
			Help: "Largest absolute annualized funding rate seen last cycle",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.CyclesTotal,
		m.QuoteFailures,
		m.HedgesOpened,
		m.HedgesFailed,
		m.OrdersRejected,
		m.UnwindAttempts,
		m.UnwindFailures,
		m.OpenPositions,
		m.TopFundingRate,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Health tracks liveness of the control loop for the /healthz probe.
type Health struct {
	mu        sync.RWMutex
	startedAt time.Time
	lastCycle time.Time
}

// NewHealth returns a health tracker.
func NewHealth() *Health {
	return &Health{startedAt: time.Now()}
}

// SetLastCycle records the completion time of a control loop cycle.
func (h *Health) SetLastCycle(t time.Time) {
	h.mu.Lock()
	h.lastCycle = t
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint. The bot is degraded when no
// cycle has completed within the last five minutes.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	lastCycle := h.lastCycle
	startedAt := h.startedAt
	h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if lastCycle.IsZero() || time.Since(lastCycle) > 5*time.Minute {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	body := struct {
		Status    string `json:"status"`
		Uptime    string `json:"uptime"`
		LastCycle string `json:"last_cycle"`
	}{
		Status: status,
		Uptime: time.Since(startedAt).Round(time.Second).String(),
	}
	if !lastCycle.IsZero() {
		body.LastCycle = lastCycle.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(body)
}

// Server exposes /metrics and /healthz.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates the metrics HTTP server.
func NewServer(addr string, m *Metrics, health *Health, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/healthz", health)

	return &Server{
		srv:    &http.Server{Addr: addr, Handler: mux},
		logger: logger,
	}
}

// Start launches the server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("metrics server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
