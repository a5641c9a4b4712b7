// Package devserver serves a watch target's output directory and tells
// connected browsers to reload after every successful pass.
//
// The reload stream at /__reload speaks the datastar SSE protocol: a page
// that connects to it with the datastar client reloads itself. Nothing is
// injected into the served files.
package devserver

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
	"github.com/leapstack-labs/leapbundle/pkg/core"
	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/sync/errgroup"
)

// ReloadPath is the Server-Sent Events endpoint.
const ReloadPath = "/__reload"

// MetricsPath serves Config.Metrics when set.
const MetricsPath = "/__metrics"

const reloadScript = "window.location.reload()"

// Config holds configuration for the dev server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// Root is the directory served at "/".
	Root string
	// Metrics, when set, is mounted at MetricsPath.
	Metrics http.Handler
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Server is the live-reload dev server.
type Server struct {
	addr     string
	root     string
	metrics  http.Handler
	logger   *slog.Logger
	notifier *Notifier
	handler  http.Handler
}

// New creates a dev server. It does not listen until Serve.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		addr:     cfg.Addr,
		root:     cfg.Root,
		metrics:  cfg.Metrics,
		logger:   logger,
		notifier: NewNotifier(),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Recoverer,
		middleware.NoCache,
	)
	r.Get(ReloadPath, s.handleReload)
	if s.metrics != nil {
		r.Handle(MetricsPath, s.metrics)
	}
	r.Handle("/*", http.FileServer(http.Dir(s.root)))
	return r
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Notifier returns the server's reload notifier.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// OnResult is a core.ResultHandler that triggers a reload after every
// successful pass. Failed passes leave the page alone.
func (s *Server) OnResult(target string, _ core.ExecMode, res *core.Result) {
	if res == nil || res.Outcome != core.OutcomeSuccess {
		return
	}
	s.logger.Debug("reloading browsers", "target", target, "listeners", s.notifier.Listeners())
	s.notifier.Broadcast()
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	sse := datastar.NewSSE(w, r)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := sse.ExecuteScript(reloadScript); err != nil {
				s.logger.Debug("reload stream closed", "error", err)
				return
			}
		}
	}
}

// Serve listens on the configured address and blocks until ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("serving output", "addr", "http://"+ln.Addr().String(), "root", s.root)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down dev server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
