package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pairline/pairline-server/internal/auth"
	"github.com/pairline/pairline-server/internal/config"
	"github.com/pairline/pairline-server/internal/core"
	"github.com/pairline/pairline-server/internal/presence/redispresence"
	"github.com/pairline/pairline-server/internal/store"
	"github.com/pairline/pairline-server/internal/store/mongodb"
	transporthttp "github.com/pairline/pairline-server/internal/transport/http"
)

// App wires together core, storage and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	presenceCloser  func() error
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("database", cfg.MongoDatabase).Msg("document store initialized")

	var registry core.Registry
	var presenceCloser func() error
	switch cfg.PresenceBackend {
	case "redis":
		redisRegistry, err := redispresence.New(ctx, cfg.RedisAddr)
		if err != nil {
			_ = st.Close(ctx)
			return nil, fmt.Errorf("init presence: %w", err)
		}
		registry = redisRegistry
		presenceCloser = redisRegistry.Close
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("using redis presence registry")
	default:
		registry = core.NewMemoryRegistry()
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := core.NewHub(st, registry, core.NewRouter(), logger)
	server := transporthttp.NewServer(hub, authService, st, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		presenceCloser:  presenceCloser,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store and other resources.
func (a *App) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
	if a.presenceCloser != nil {
		if err := a.presenceCloser(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close presence registry")
		}
	}
}
