// README: API gateway; owns the HTTP server and delegates to module services.
package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"travellite/internal/infra"
	"travellite/internal/modules/booking"
	"travellite/internal/modules/pricing"
	"travellite/internal/modules/station"
)

type ServerDeps struct {
	Stations *station.Service
	Pricing  *pricing.Service
	Bookings *booking.Service
	Verifier infra.TokenVerifier
}

type Server struct {
	srv *http.Server
}

func NewServer(addr string, deps ServerDeps) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[HTTP] listening addr=%s", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
