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
	"github.com/go-chi/chi/v5/middleware"
)

// shutdownGrace bounds how long Shutdown waits for open requests to finish.
const shutdownGrace = 10 * time.Second

// Server serves the lobby pages, the stats API and the game websocket.
//
// Game connections and the stats event stream are long-lived, so every
// request context is derived from a base context that is cancelled as soon
// as Shutdown starts. Sessions then see their transport fail, record the
// game as abandoned and return, instead of holding the process open until
// the grace period runs out.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
	stop   context.CancelFunc
}

// New builds the server. mount registers the game and stats handlers; the
// OpenAPI document, the docs UI and the static client are routed around them.
func New(addr string, logger *slog.Logger, staticDir string, mount func(r chi.Router)) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	addRoutes(r, logger, staticDir, mount)

	base, stop := context.WithCancel(context.Background())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return base },
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger,
		stop:   stop,
	}
}

// Handler returns the router without a listener.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run listens on the configured address and serves until Shutdown.
func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open games and event streams, stops accepting connections
// and waits up to shutdownGrace for handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	s.stop()
	err := s.srv.Shutdown(ctx)
	if err != nil {
		s.logger.Warn("http server did not drain", "error", err)
	}
	return err
}

// requestLogger writes one line per request. Websocket upgrades are logged
// when the game ends, with the duration of the whole connection.
func requestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
