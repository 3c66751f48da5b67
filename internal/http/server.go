package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"trackbridge/internal/core"
)

// ReadyFunc reports whether the service is ready to handle chat traffic.
type ReadyFunc func() bool

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
	ready   ReadyFunc
}

type Metrics struct {
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionTime     *prometheus.HistogramVec
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	ProviderErrorsTotal *prometheus.CounterVec
	RetryAttemptsTotal  *prometheus.CounterVec
}

func newMetrics(registerer prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackbridge_resolutions_total",
				Help: "Total number of finished track resolutions",
			},
			[]string{"source", "status"},
		),
		ResolutionTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trackbridge_resolution_duration_seconds",
				Help:    "Time spent resolving a track link",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trackbridge_cache_hits_total",
				Help: "Total number of resolution cache hits",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trackbridge_cache_misses_total",
				Help: "Total number of resolution cache misses",
			},
		),
		ProviderErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackbridge_provider_errors_total",
				Help: "Total number of provider call failures",
			},
			[]string{"provider", "kind"},
		),
		RetryAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackbridge_retry_attempts_total",
				Help: "Total number of retried provider calls",
			},
			[]string{"provider"},
		),
	}

	registerer.MustRegister(
		metrics.ResolutionsTotal,
		metrics.ResolutionTime,
		metrics.CacheHitsTotal,
		metrics.CacheMissesTotal,
		metrics.ProviderErrorsTotal,
		metrics.RetryAttemptsTotal,
	)

	return metrics
}

func NewServer(config *core.ServerConfig, ready ReadyFunc, logger *zap.Logger) *Server {
	return newServer(config, ready, prometheus.DefaultRegisterer, promhttp.Handler(), logger)
}

func newServer(config *core.ServerConfig, ready ReadyFunc, registerer prometheus.Registerer, metricsHandler http.Handler, logger *zap.Logger) *Server {
	if ready == nil {
		ready = func() bool { return true }
	}

	srv := &Server{
		config:  config,
		logger:  logger,
		metrics: newMetrics(registerer),
		ready:   ready,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"trackbridge"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !srv.ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable","service":"trackbridge"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"trackbridge"}`))
	})

	mux.Handle("/metrics", metricsHandler)

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>TrackBridge</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1 class="header">🎵 TrackBridge</h1>
    <p>Spotify ↔ TIDAL Track Link Converter</p>

    <h2>Endpoints</h2>
    <div class="endpoint">📊 <a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint">💚 <a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint">✅ <a href="/readyz">Ready</a> - Readiness check</div>

    <h2>Status</h2>
    <p>Service is running and converting track links between catalogs.</p>
</body>
</html>`))
	})

	srv.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return srv
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// RecordResolution implements core.Metrics.
func (s *Server) RecordResolution(source core.Provider, status core.ResolutionStatus, elapsed time.Duration) {
	s.metrics.ResolutionsTotal.WithLabelValues(string(source), status.String()).Inc()
	s.metrics.ResolutionTime.WithLabelValues(string(source)).Observe(elapsed.Seconds())
}

// RecordCacheHit implements core.Metrics.
func (s *Server) RecordCacheHit() {
	s.metrics.CacheHitsTotal.Inc()
}

// RecordCacheMiss implements core.Metrics.
func (s *Server) RecordCacheMiss() {
	s.metrics.CacheMissesTotal.Inc()
}

// RecordProviderError implements core.Metrics.
func (s *Server) RecordProviderError(provider core.Provider, kind string) {
	s.metrics.ProviderErrorsTotal.WithLabelValues(string(provider), kind).Inc()
}

// RecordRetry counts a retried provider call. Wire it to the retry hook of
// the call limiter.
func (s *Server) RecordRetry(provider core.Provider) {
	s.metrics.RetryAttemptsTotal.WithLabelValues(string(provider)).Inc()
}
