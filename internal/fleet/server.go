package fleet

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/telemetry"
)

// Server exposes the probe over HTTP, or HTTPS when TLS is set.
type Server struct {
	Probe *Probe
	TLS   *tls.Config
	srv   *http.Server
}

// NewServer builds the health server described by the fleet section of cfg.
func NewServer(cfg prov.Config) (*Server, error) {
	probe, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{Probe: probe}
	if files := TLSFilesFromConfig(cfg); files != nil {
		if s.TLS, err = BuildTLS(*files); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Handler returns the routes of the health server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return mux
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			telemetry.RecordHTTPRequest("/health", http.StatusMethodNotAllowed)
			return
		}
		doc := HealthDocument(s.Probe.Probe(r.Context()))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			log.Debug().Err(err).Msg("write health response")
		}
		telemetry.RecordHTTPRequest("/health", http.StatusOK)
	})
	mux.Handle("/metrics", telemetry.Handler())
}

func (s *Server) prepare(addr string) *http.Server {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig:         s.TLS,
	}
	log.Info().
		Str("addr", addr).
		Str("farm_host", s.Probe.FarmHost).
		Bool("tls", s.TLS != nil).
		Bool("mtls_required", s.TLS != nil && s.TLS.ClientAuth == tls.RequireAndVerifyClientCert).
		Msg("fleet health server listening")
	return s.srv
}

func (s *Server) serve(srv *http.Server) error {
	if s.TLS != nil {
		return srv.ListenAndServeTLS("", "")
	}
	return srv.ListenAndServe()
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := s.prepare(addr)
	errc := make(chan error, 1)
	go func() { errc <- s.serve(srv) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("fleet health server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return fmt.Errorf("server not running")
	}
	return s.srv.Shutdown(ctx)
}
