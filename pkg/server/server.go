// Package server serves a live render surface over HTTP.
//
// Clients POST element documents to /render. Each document is reconciled
// against the previous one on the renderer's loop, and the resulting host
// mutations reach WebSocket clients on /ws as binary patch frames. GET /
// returns the committed HTML.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
)

// DefaultMaxBodyBytes limits the size of a render request.
const DefaultMaxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	// Renderer reconciles posted documents. Required.
	Renderer *fiber.Renderer

	// Snapshot returns the committed HTML. It runs on the renderer's
	// loop. Required.
	Snapshot func() string

	// Hub streams patch frames. If nil, /ws is not served.
	Hub *Hub

	// Gatherer backs /metrics. If nil, /metrics is not served.
	Gatherer prometheus.Gatherer

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Server routes render requests to a Renderer.
type Server struct {
	opts   Options
	logger *slog.Logger
	router chi.Router
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{opts: opts, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/render", s.handleRender)
	r.Get("/", s.handleSnapshot)
	r.Get("/healthz", s.handleHealth)
	if opts.Hub != nil {
		r.Get("/ws", opts.Hub.HandleWebSocket)
	}
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("render server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.opts.Hub != nil {
		s.opts.Hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type renderResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, errors.New("E401").Wrap(err))
		return
	}

	el, err := element.Decode(body)
	if err != nil {
		s.logger.Warn("render: invalid document", "error", err)
		writeError(w, http.StatusBadRequest, errors.FromError(err, "E401"))
		return
	}

	if !s.opts.Renderer.Render(el) {
		http.Error(w, "renderer stopped", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, renderResponse{Status: "scheduled"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var html string
	err := s.opts.Renderer.Do(r.Context(), func(*fiber.Scheduler) {
		html = s.opts.Snapshot()
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeError(w http.ResponseWriter, status int, err *errors.FiberError) {
	resp := errorResponse{Code: err.Code, Message: err.Message, Detail: err.Detail}
	if err.Wrapped != nil {
		resp.Detail = err.Wrapped.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
