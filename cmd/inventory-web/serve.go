package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inventory-system/inventory-web/internal/api"
	"github.com/inventory-system/inventory-web/internal/api/handler"
	"github.com/inventory-system/inventory-web/internal/api/middleware"
	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/core/service"
	"github.com/inventory-system/inventory-web/internal/infrastructure/backend"
	"github.com/inventory-system/inventory-web/internal/infrastructure/db/memory"
	mongostore "github.com/inventory-system/inventory-web/internal/infrastructure/db/mongo"
	redisstore "github.com/inventory-system/inventory-web/internal/infrastructure/db/redis"
	"github.com/inventory-system/inventory-web/internal/infrastructure/queue"
	"github.com/inventory-system/inventory-web/internal/pkg/config"
	"github.com/inventory-system/inventory-web/internal/pkg/sealer"
	"github.com/inventory-system/inventory-web/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cfg := config.Load()
		logger.Init(logger.Options{
			Level:   cfg.LogLevel,
			Pretty:  !cfg.IsProduction(),
			Service: "inventory-web",
		})
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	client, err := backend.New(backend.Config{BaseURL: cfg.Backend.URL, Timeout: cfg.Backend.Timeout}, log)
	if err != nil {
		return err
	}
	checks := map[string]handler.Check{"backend": client.Ping}

	stores, err := openStores(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer stores.close()

	// Workers outlive ctx so that revocations queued during shutdown drain.
	revoker := queue.NewDispatcher(cfg.Session.RevokeWorkers, client, log)
	revoker.Start(context.WithoutCancel(ctx))

	registry := service.NewSessionRegistry(service.SessionDeps{
		Auth:    client,
		Store:   stores.credentials,
		Revoker: revoker,
		Logger:  log,
	}, cfg.Session.IdleTTL)
	go registry.Run(ctx, sweepInterval)

	e, err := api.NewRouter(api.Deps{
		Registry: registry,
		Products: client.Products,
		Guard:    stores.submissions,
		Checks:   checks,
		Logger:   log,
	}, api.Options{
		Session: middleware.SessionOptions{
			CookieName: cfg.Session.Cookie,
			Secure:     cfg.Session.CookieSecure,
		},
		CSRF: cfg.Session.CSRF,
	})
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("backend", cfg.Backend.URL).
			Str("store", cfg.Session.Store).
			Msg("inventory-web listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	registry.Close()
	revoker.Close()
	return nil
}

// storeSet is the credential store and submission guard picked by
// SESSION_STORE, with whatever connection they hold.
type storeSet struct {
	credentials ports.CredentialStore
	submissions ports.SubmissionGuard
	close       func()
}

func openStores(ctx context.Context, cfg *config.Config, checks map[string]handler.Check) (*storeSet, error) {
	log := logger.Get()
	switch cfg.Session.Store {
	case config.StoreRedis:
		s, err := sealer.New(cfg.Session.Secret)
		if err != nil {
			return nil, err
		}
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return &storeSet{
			credentials: redisstore.NewCredentialStore(rdb, s),
			submissions: redisstore.NewSubmissionGuard(rdb),
			close:       func() { _ = rdb.Close() },
		}, nil

	case config.StoreMongo:
		s, err := sealer.New(cfg.Session.Secret)
		if err != nil {
			return nil, err
		}
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		creds := mongostore.NewCredentialStore(db, s)
		if err := creds.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		checks["mongodb"] = mongostore.Ping(client)
		log.Info().Msg("form submissions are guarded in memory with SESSION_STORE=mongo")
		return &storeSet{
			credentials: creds,
			submissions: memory.NewSubmissionGuard(),
			close:       func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		log.Warn().Msg("credentials are kept in memory and will not survive a restart")
		return &storeSet{
			credentials: memory.NewCredentialStore(),
			submissions: memory.NewSubmissionGuard(),
			close:       func() {},
		}, nil
	}
}
