package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"convertey/config"
	"convertey/converter"
)

// Server is the HTTP front of the conversion service
type Server struct {
	cfg     *config.Config
	handler *Handler
	metrics *Metrics
	logger  *slog.Logger
	router  http.Handler
}

// New builds the router: health and metrics at the root, conversion
// endpoints under /api behind the rate-limit tiers, CORS around everything
func New(cfg *config.Config, dispatcher *converter.Dispatcher, logger *slog.Logger) *Server {
	metrics := NewMetrics()
	s := &Server{
		cfg:     cfg,
		handler: NewHandler(dispatcher, metrics, logger, cfg.MaxRequestBytes),
		metrics: metrics,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(logger, metrics))
	r.Use(Recovery(logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		RespondError(w, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
	})

	r.Get("/health", s.handler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		for _, tier := range cfg.RateLimits {
			r.Use(IPRateLimiter(tier, metrics))
		}
		r.Post("/convert/file", s.handler.ConvertFile)
		r.Get("/convert/formats", s.handler.Formats)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	})
	s.router = c.Handler(r)

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		s.logger.Info("shutting down server", "timeout", s.cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
