// Package api serves the packet archive over HTTP.
//
// Packets travel in their binary wire form on upload and raw download, and
// as JSON when inspected. Prometheus metrics are served unauthenticated at
// /metrics. Every route under /api/v1 requires the X-API-Key header when
// the server is configured with a key.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ssargent/caerevents/pkg/diag"
	"github.com/ssargent/caerevents/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Server holds the API server state
type Server struct {
	store    PacketStore
	config   ServerConfig
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	diag     diag.Sink
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer sets the registry served at /metrics. The default is the
// global Prometheus gatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithDiagnostics sets the sink given to uploaded packets. The default
// logs through the server logger and counts in metrics.
func WithDiagnostics(sink diag.Sink) Option {
	return func(s *Server) {
		s.diag = diag.OrNop(sink)
	}
}

// NewServer creates a new API server
func NewServer(store PacketStore, config ServerConfig, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	if config.MaxPacketBytes <= 0 {
		config.MaxPacketBytes = DefaultMaxPacketBytes
	}

	s := &Server{
		store:    store,
		config:   config,
		metrics:  m,
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
	}
	s.diag = diag.Multi(diag.NewZapSink(logger), m.DiagnosticsSink())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.metrics.InstrumentHandler("GET", "/health", s.handleHealth))
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(apiKeyMiddleware(s.config.APIKey))
		}

		r.Post("/packets", s.metrics.InstrumentHandler("POST", "/api/v1/packets", s.handlePutPacket))
		r.Get("/packets", s.metrics.InstrumentHandler("GET", "/api/v1/packets", s.handleListPackets))
		r.Get("/packets/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/packets/{id}", s.handleGetPacket))
		r.Get("/packets/{id}/raw", s.metrics.InstrumentHandler("GET", "/api/v1/packets/{id}/raw", s.handleGetRawPacket))
		r.Delete("/packets/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/packets/{id}", s.handleDeletePacket))
	})

	return r
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting packet archive server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down packet archive server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
