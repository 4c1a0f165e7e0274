// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ballotbox.
//
// go-ballotbox is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package rest exposes the election platform over HTTP: voter enrollment,
// WebAuthn ceremonies, vote casting and the administrator surface.
package rest

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
	"github.com/jeremyhahn/go-ballotbox/pkg/ratelimit"
	"github.com/jeremyhahn/go-ballotbox/pkg/risk"
)

// Params holds the dependencies for a REST server.
type Params struct {
	// Addr is the host:port to listen on.
	Addr string

	// Ceremony runs WebAuthn registration and authentication.
	Ceremony *ceremony.Service

	// Ballot manages elections, candidates and votes.
	Ballot *ballot.Service

	// Voters is the voter identity store.
	Voters ceremony.VoterStore

	// Admins is the administrator store.
	Admins ceremony.AdminStore

	// Audit exposes recent security alerts for the dashboard. Optional.
	Audit risk.AuditStore

	// Sessions issues and verifies session tokens.
	Sessions *SessionManager

	// TLSConfig enables TLS termination when set.
	TLSConfig *tls.Config

	// RateLimit throttles requests per client IP when set and enabled.
	RateLimit *ratelimit.Limiter

	// MetricsEnabled mounts the Prometheus handler at MetricsPath.
	MetricsEnabled bool

	// MetricsPath is the metrics endpoint path. Defaults to /metrics.
	MetricsPath string

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the HTTP server for the election platform.
type Server struct {
	addr       string
	router     chi.Router
	httpServer *http.Server
	ceremonies *ceremony.Service
	ballots    *ballot.Service
	voters     ceremony.VoterStore
	admins     ceremony.AdminStore
	audit      risk.AuditStore
	sessions   *SessionManager
	logger     *slog.Logger
}

// NewServer creates a REST server with all routes mounted.
func NewServer(params Params) (*Server, error) {
	if params.Ceremony == nil {
		return nil, fmt.Errorf("ceremony service is required")
	}
	if params.Ballot == nil {
		return nil, fmt.Errorf("ballot service is required")
	}
	if params.Voters == nil {
		return nil, fmt.Errorf("voter store is required")
	}
	if params.Admins == nil {
		return nil, fmt.Errorf("admin store is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	if params.MetricsPath == "" {
		params.MetricsPath = "/metrics"
	}

	s := &Server{
		addr:       params.Addr,
		ceremonies: params.Ceremony,
		ballots:    params.Ballot,
		voters:     params.Voters,
		admins:     params.Admins,
		audit:      params.Audit,
		sessions:   params.Sessions,
		logger:     params.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	if params.RateLimit != nil && params.RateLimit.IsEnabled() {
		r.Use(ratelimit.Middleware(params.RateLimit))
	}

	if params.MetricsEnabled {
		r.Handle(params.MetricsPath, promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Voter enrollment and lookup
		r.Post("/voters", s.handleRegisterVoter)
		r.Get("/voters", s.handleLookupVoter)
		r.Get("/voters/{id}/status", s.handleVoterStatus)

		// WebAuthn ceremonies
		r.Route("/webauthn", func(r chi.Router) {
			r.Post("/register/begin", s.handleBeginRegistration)
			r.Post("/register/complete", s.handleCompleteRegistration)
			r.Post("/authenticate/begin", s.handleBeginAuthentication)
			r.Post("/authenticate/complete", s.handleCompleteAuthentication)
		})

		// Public election state
		r.Get("/elections/active", s.handleActiveElection)
		r.Get("/elections/{id}/results", s.handleResults)
		r.Get("/elections/{id}/candidates", s.handleListCandidates)

		r.Post("/admin/login", s.handleAdminLogin)

		// Voter-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(RoleVoter))
			r.Post("/votes", s.handleCastVote)
		})

		// Admin-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(RoleAdmin))
			r.Get("/admin/dashboard", s.handleDashboard)
			r.Get("/elections", s.handleListElections)
			r.Post("/elections", s.handleCreateElection)
			r.Put("/elections/{id}", s.handleUpdateElection)
			r.Delete("/elections/{id}", s.handleDeleteElection)
			r.Post("/elections/set-active", s.handleSetActiveElection)
			r.Post("/candidates", s.handleCreateCandidate)
			r.Put("/candidates/{id}", s.handleUpdateCandidate)
			r.Delete("/candidates/{id}", s.handleDeleteCandidate)
		})
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:              params.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         params.TLSConfig,
	}

	return s, nil
}

// Handler returns the router for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP, or HTTPS when a TLS config is present. Blocks
// until the server is shut down.
func (s *Server) Start() error {
	var err error
	if s.httpServer.TLSConfig != nil {
		s.logger.Info("REST server listening", "addr", s.addr, "tls", true)
		// Certificates come from TLSConfig.
		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		s.logger.Info("REST server listening", "addr", s.addr)
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("rest server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("REST server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth responds to health checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
