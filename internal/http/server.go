// Package http exposes the playback-intent control surface and the usual
// operational endpoints (health, readiness, metrics).
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tunepilot/internal/core"
)

// Player is the playback surface the handlers drive. Implemented by
// core.Orchestrator.
type Player interface {
	Play(ctx context.Context, query string) (string, error)
	Resume(ctx context.Context) (string, error)
	Pause(ctx context.Context) (string, error)
	Skip(ctx context.Context) (string, error)
	SetVolume(ctx context.Context, level int) (string, error)
}

// Authenticator drives the authorization-code flow behind /login and
// /callback. Implemented by spotify.TokenStore.
type Authenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) error
}

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
	player  Player
	auth    Authenticator
	state   string
}

type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	TokenRefreshTotal prometheus.Counter
	PlayOutcomesTotal *prometheus.CounterVec
}

func newMetrics() *Metrics {
	metrics := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunepilot_requests_total",
				Help: "Total number of HTTP requests handled",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunepilot_request_duration_seconds",
				Help:    "Time spent handling requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		TokenRefreshTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tunepilot_token_refreshes_total",
				Help: "Total number of access token refreshes",
			},
		),
		PlayOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunepilot_play_outcomes_total",
				Help: "Total number of /play requests by outcome",
			},
			[]string{"outcome"},
		),
	}

	prometheus.MustRegister(
		metrics.RequestsTotal,
		metrics.RequestDuration,
		metrics.TokenRefreshTotal,
		metrics.PlayOutcomesTotal,
	)

	return metrics
}

func NewServer(config *core.ServerConfig, player Player, auth Authenticator, logger *zap.Logger) *Server {
	s := &Server{
		config:  config,
		logger:  logger,
		metrics: newMetrics(),
		player:  player,
		auth:    auth,
		state:   randomState(),
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", s.handleLogin)
	mux.HandleFunc("GET /callback", s.handleCallback)
	mux.HandleFunc("POST /play", s.handlePlay)
	mux.HandleFunc("POST /resume", s.handleResume)
	mux.HandleFunc("POST /pause", s.handlePause)
	mux.HandleFunc("POST /skip", s.handleSkip)
	mux.HandleFunc("POST /volume", s.handleVolume)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"tunepilot"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"tunepilot"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>tunepilot</title></head>
<body>
    <h1>🎵 tunepilot</h1>
    <p>Free-text playback intents → Spotify.</p>
    <ul>
        <li><a href="/login">Login</a> - connect a Spotify account</li>
        <li><a href="/metrics">Metrics</a> - Prometheus metrics</li>
        <li><a href="/healthz">Health</a> - health check</li>
    </ul>
</body>
</html>`))
	})

	return mux
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

// RecordTokenRefresh is wired as the token store's refresh hook.
func (s *Server) RecordTokenRefresh() {
	s.metrics.TokenRefreshTotal.Inc()
}

func (s *Server) observe(endpoint string, status int, start time.Time) {
	s.metrics.RequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()
	s.metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func randomState() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in no shape to run.
		panic(fmt.Sprintf("failed to generate state token: %v", err))
	}
	return hex.EncodeToString(buf)
}
