package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"carepay-gateway/internal/config"
	"carepay-gateway/internal/infra/api"
)

// Server owns the listener and the root router: /health, /metrics and the
// v1 payment API.
type Server struct {
	cfg    config.HTTPConfig
	log    *zerolog.Logger
	router chi.Router
	server *http.Server
}

func NewServer(cfg config.HTTPConfig, gateways api.GatewayLookup, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "http").Logger()
	r := chi.NewRouter()
	r.Use(api.TraceID(), api.RequestLog(&l), api.Recover(&l))
	r.Get("/health", handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	api.NewServer(gateways, cfg.RequestTimeout, &l).Register(r)

	return &Server{
		cfg:    cfg,
		log:    &l,
		router: r,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the root router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
