// Package api exposes the control surface: trigger crawls, health, and
// Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/metrics"
	"github.com/campuseats/spider/internal/spider"
)

// Runner starts a crawl; implemented by app.App.
type Runner interface {
	Crawl(ctx context.Context, seeds []string) ([]spider.NormalizedEvent, spider.CrawlStats, error)
}

// Server is the HTTP control API.
type Server struct {
	runner Runner
	logger *zap.Logger
	http   *http.Server
}

// crawlRequest is the POST /crawl payload.
type crawlRequest struct {
	SeedURLs []string `json:"seed_urls"`
}

// crawlResponse returns the run's events and statistics.
type crawlResponse struct {
	Events []spider.NormalizedEvent `json:"events"`
	Stats  spider.CrawlStats        `json:"stats"`
}

// NewServer builds the server on the given port.
func NewServer(port int, runner Runner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Post("/crawl", s.handleCrawl)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the context ends or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	events, stats, err := s.runner.Crawl(r.Context(), req.SeedURLs)
	if err != nil {
		if errors.Is(err, spider.ErrNoSeeds) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("crawl failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "crawl failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(crawlResponse{Events: events, Stats: stats}); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
