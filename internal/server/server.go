package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bobmcallan/tradedesk/internal/app"
	"github.com/bobmcallan/tradedesk/internal/common"
)

// Server serves the REST API for one App.
type Server struct {
	app     *app.App
	logger  *common.Logger
	handler http.Handler
	http    *http.Server
}

// NewServer builds the route table and middleware stack. Timeouts come from
// the [server] config section.
func NewServer(a *app.App) *Server {
	s := &Server{app: a, logger: a.Logger}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = applyMiddleware(mux, a.Logger, a.Config, a.Storage.UserStore())

	cfg := &a.Config.Server
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.GetReadTimeout(),
		ReadTimeout:       cfg.GetReadTimeout(),
		WriteTimeout:      cfg.GetWriteTimeout(),
		IdleTimeout:       2 * cfg.GetWriteTimeout(),
	}
	return s
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled,
// then drains in-flight requests within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("REST API listening")
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.app.Config.Server.GetShutdownTimeout()
	s.logger.Info().Dur("timeout", timeout).Msg("Draining HTTP connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	<-errCh
	return nil
}
