package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/groupmeal/groupmeal-backend/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "groupmeal"

// Server owns the registry and the optional standalone /metrics listener
type Server struct {
	config   config.MetricsConfig
	server   *http.Server
	registry *prometheus.Registry
	mu       sync.Mutex

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	webhooks     *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobFailures  *prometheus.CounterVec
}

func NewServer(cfg config.MetricsConfig) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		config:   cfg,
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound webhook events by source and outcome.",
		}, []string{"source", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cron_job_duration_seconds",
			Help:      "Background job run time.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60},
		}, []string{"job"}),
		jobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_job_failures_total",
			Help:      "Background job failures.",
		}, []string{"job"}),
	}

	registry.MustRegister(s.httpRequests, s.httpDuration, s.webhooks, s.jobDuration, s.jobFailures)
	return s
}

func (s *Server) RegisterCollector(c prometheus.Collector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Register(c); err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}
	return nil
}

// RegisterGauge exposes a value computed on scrape
func (s *Server) RegisterGauge(name, help string, fn func() float64) error {
	return s.RegisterCollector(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

func (s *Server) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Middleware records request count and latency keyed by the chi route pattern
func (s *Server) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		s.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		s.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Webhook counts a webhook by source (identity, payments, delivery) and outcome
func (s *Server) Webhook(source, outcome string) {
	s.webhooks.WithLabelValues(source, outcome).Inc()
}

// ObserveJob matches the cron scheduler observer signature
func (s *Server) ObserveJob(name string, d time.Duration, err error) {
	s.jobDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		s.jobFailures.WithLabelValues(name).Inc()
	}
}

// Start serves /metrics on its own port when enabled
func (s *Server) Start() error {
	if !s.config.Enable {
		slog.Info("Metrics server is disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Handler())

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Metrics server started", "address", addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
