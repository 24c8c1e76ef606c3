// Package opsserver exposes health probes and read-only admin endpoints over HTTP.
package opsserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/m3rciful/topupbot/core/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	requestTimeout    = 10 * time.Second
)

// Options configures the server.
type Options struct {
	Listen string
	// Token is required as a bearer token on Protected routes. Start refuses
	// to serve Protected routes without one.
	Token string
	// Ready reports whether dependencies are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
	// Protected mounts routes behind the token check.
	Protected func(r chi.Router)
}

// Server is the ops HTTP server.
type Server struct {
	opts    Options
	handler http.Handler
	srv     *http.Server
	ln      net.Listener
}

// ErrNoToken is returned by Start when Protected routes are mounted without a token.
var ErrNoToken = errors.New("opsserver: protected routes require a token")

// ErrorResponse is the JSON body of failed requests.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// New builds the router. Start binds the listener.
func New(opts Options) *Server {
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", s.ready)
	if opts.Protected != nil {
		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(opts.Token))
			opts.Protected(r)
		})
	}
	s.handler = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		if err := s.opts.Ready(r.Context()); err != nil {
			logger.LogEvent(r.Context(), logger.Ops, slog.LevelWarn, "ops.ready",
				slog.String("status", "fail"),
				logger.Err(err),
			)
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, ErrorResponse{Status: "unavailable"})
			return
		}
	}
	render.JSON(w, r, map[string]string{"status": "ready"})
}

// BearerAuth rejects requests without "Authorization: Bearer <token>".
// An empty token disables the check.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, ErrorResponse{Status: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		ctx := logger.WithRID(r.Context(), middleware.GetReqID(r.Context()))
		logger.LogEvent(ctx, logger.Ops, slog.LevelDebug, "http.request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("http_status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// Start binds Listen and serves in the background.
func (s *Server) Start() error {
	if s.opts.Protected != nil && s.opts.Token == "" {
		return ErrNoToken
	}
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Ops.Error("ops.serve", slog.String("status", "fail"), logger.Err(err))
		}
	}()
	logger.Ops.Info("ops.start", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
