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

// Package server assembles the election platform from configuration: storage
// backend, ceremony and ballot services, risk recorder and the REST server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jeremyhahn/go-ballotbox/internal/config"
	"github.com/jeremyhahn/go-ballotbox/internal/rest"
	"github.com/jeremyhahn/go-ballotbox/pkg/ballot"
	"github.com/jeremyhahn/go-ballotbox/pkg/ceremony"
	"github.com/jeremyhahn/go-ballotbox/pkg/metrics"
	"github.com/jeremyhahn/go-ballotbox/pkg/ratelimit"
	"github.com/jeremyhahn/go-ballotbox/pkg/risk"
	"github.com/jeremyhahn/go-ballotbox/pkg/storage/memory"
	"github.com/jeremyhahn/go-ballotbox/pkg/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Stores groups the persistence interfaces the platform needs, regardless of
// which backend provides them.
type Stores struct {
	Voters      ceremony.VoterStore
	Admins      ceremony.AdminStore
	Credentials ceremony.CredentialStore
	Challenges  ceremony.ChallengeStore
	Ballots     ballot.Store
	Audit       risk.AuditStore

	// closer releases backend resources, nil for the memory backend.
	closer func() error
}

// Close releases backend resources.
func (s *Stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Server is the assembled platform.
type Server struct {
	Config   *config.Config
	Stores   *Stores
	Ceremony *ceremony.Service
	Ballot   *ballot.Service
	Recorder *risk.Recorder
	REST     *rest.Server
	Limiter  *ratelimit.Limiter
	Logger   *slog.Logger
}

// NewLogger builds a slog logger from the logging configuration.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// OpenStores creates the persistence layer selected by the configuration.
func OpenStores(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	switch cfg.Driver {
	case "memory":
		voters := memory.NewVoterStore()
		return &Stores{
			Voters:      voters,
			Admins:      memory.NewAdminStore(),
			Credentials: memory.NewCredentialStore(),
			Challenges:  memory.NewChallengeStore(),
			Ballots:     memory.NewBallotStore(voters),
			Audit:       memory.NewAuditStore(),
		}, nil

	case "sqlite":
		store, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		if err := store.CreateSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
		return &Stores{
			Voters:      store,
			Admins:      store.Admins(),
			Credentials: store,
			Challenges:  store,
			Ballots:     store,
			Audit:       store,
			closer:      store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// New assembles the full platform from configuration.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger := NewLogger(cfg.Logging)

	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	stores, err := OpenStores(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	var scorer risk.Scorer
	if cfg.Risk.Endpoint != "" {
		scorer, err = risk.NewHTTPScorer(risk.HTTPScorerParams{
			Endpoint: cfg.Risk.Endpoint,
			APIKey:   cfg.Risk.APIKey,
			Timeout:  cfg.Risk.Timeout,
		})
		if err != nil {
			stores.Close()
			return nil, fmt.Errorf("create risk scorer: %w", err)
		}
	}

	recorder, err := risk.NewRecorder(risk.RecorderParams{
		Scorer: scorer,
		Store:  stores.Audit,
		Logger: logger,
	})
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("create risk recorder: %w", err)
	}

	webauthnCfg := cfg.WebAuthn
	ceremonies, err := ceremony.NewService(ceremony.ServiceParams{
		Config:          &webauthnCfg,
		VoterStore:      stores.Voters,
		CredentialStore: stores.Credentials,
		ChallengeStore:  stores.Challenges,
		RiskSink:        recorder,
		Logger:          logger,
	})
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("create ceremony service: %w", err)
	}

	ballots, err := ballot.NewService(ballot.ServiceParams{
		Store:  stores.Ballots,
		Logger: logger,
	})
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("create ballot service: %w", err)
	}

	sessions, err := rest.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("create session manager: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("no JWT secret configured, sessions will not survive restarts")
	}

	tlsConfig, err := cfg.TLS.LoadTLSConfig()
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("load tls config: %w", err)
	}

	rateLimitCfg := cfg.RateLimit
	limiter := ratelimit.New(&rateLimitCfg)

	restServer, err := rest.NewServer(rest.Params{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Ceremony:       ceremonies,
		Ballot:         ballots,
		Voters:         stores.Voters,
		Admins:         stores.Admins,
		Audit:          stores.Audit,
		Sessions:       sessions,
		TLSConfig:      tlsConfig,
		RateLimit:      limiter,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
		Logger:         logger,
	})
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("create rest server: %w", err)
	}

	return &Server{
		Config:   cfg,
		Stores:   stores,
		Ceremony: ceremonies,
		Ballot:   ballots,
		Recorder: recorder,
		REST:     restServer,
		Limiter:  limiter,
		Logger:   logger,
	}, nil
}

// Run starts the REST server and blocks until the context is canceled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.Config.Metrics.Enabled {
		collector := metrics.StartResourceCollector(ctx, 30*time.Second)
		defer collector.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.REST.Start()
	}()

	select {
	case err := <-errCh:
		s.Stores.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.REST.Shutdown(shutdownCtx); err != nil {
		s.Logger.Error("shutdown failed", "error", err)
	}
	s.Limiter.Stop()
	if err := s.Stores.Close(); err != nil {
		s.Logger.Error("failed to close stores", "error", err)
	}
	return nil
}
