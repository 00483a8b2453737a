package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/larkbridge/larkbridge/internal/compute"
	"github.com/larkbridge/larkbridge/internal/config"
	"github.com/larkbridge/larkbridge/internal/correlate"
	"github.com/larkbridge/larkbridge/internal/enrich"
	"github.com/larkbridge/larkbridge/internal/feishu"
	"github.com/larkbridge/larkbridge/internal/handlers"
	"github.com/larkbridge/larkbridge/internal/logger"
	"github.com/larkbridge/larkbridge/internal/relay"
	"github.com/larkbridge/larkbridge/internal/server"
	"github.com/larkbridge/larkbridge/internal/storage"
	"github.com/larkbridge/larkbridge/internal/storage/providers/localfs"
	"github.com/larkbridge/larkbridge/internal/tenant"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBPool,
			provideCorrelationStore,
			provideRegistry,
			provideComputeClient,
			provideSigner,
			provideObjectStore,
			provideDispatcher,
			providePingHandler,
			provideWebhookHandler,
			provideObjectsHandler,
			provideServer,
		),
		fx.Invoke(
			startWebsockets,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load("")
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	dsn := cfg.Postgres.DSN()
	if err := correlate.Migrate(dsn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pool, err := correlate.Open(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { pool.Close(); return nil }})
	return pool, nil
}

func provideCorrelationStore(log *slog.Logger, pool *pgxpool.Pool) *correlate.Store {
	return correlate.NewStore(log, correlate.NewPostgresKV(pool))
}

func provideRegistry(cfg config.Config) (*tenant.Registry, error) {
	return tenant.NewRegistry(cfg.Tenants)
}

func provideComputeClient(log *slog.Logger, cfg config.Config) *compute.Client {
	return compute.NewClient(log, cfg.Compute)
}

func provideSigner(cfg config.Config) (*storage.Signer, error) {
	ttl, err := time.ParseDuration(cfg.Storage.SignedTTL)
	if err != nil {
		return nil, fmt.Errorf("parse signed_ttl: %w", err)
	}
	return storage.NewSigner(cfg.Storage.SignSecret, cfg.Storage.BaseURL, ttl)
}

func provideObjectStore(cfg config.Config, signer *storage.Signer) (storage.Store, error) {
	return localfs.New(cfg.Storage.DataRoot, signer)
}

func provideDispatcher(
	log *slog.Logger,
	registry *tenant.Registry,
	invoker *compute.Client,
	store *correlate.Store,
	objects storage.Store,
) *relay.Dispatcher {
	downloader := enrich.NewHTTPDownloader(30 * time.Second)
	newOutbound := func(profile tenant.Profile) relay.Outbound {
		return feishu.NewMessenger(log, profile.Client)
	}
	newEnricher := func(uploader enrich.Uploader) relay.Enricher {
		return enrich.NewPipeline(log, store, downloader, uploader)
	}
	return relay.NewDispatcher(log, registry, invoker, store, objects, newOutbound, newEnricher)
}

func providePingHandler() *handlers.PingHandler {
	return handlers.NewPingHandler()
}

func provideWebhookHandler(log *slog.Logger, dispatcher *relay.Dispatcher) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, dispatcher)
}

func provideObjectsHandler(log *slog.Logger, objects storage.Store, signer *storage.Signer) *handlers.ObjectsHandler {
	return handlers.NewObjectsHandler(log, objects, signer)
}

func provideServer(
	cfg config.Config,
	pingHandler *handlers.PingHandler,
	webhookHandler *handlers.WebhookHandler,
	objectsHandler *handlers.ObjectsHandler,
) *server.Server {
	return server.NewServer(cfg.Server.Addr, pingHandler, webhookHandler, objectsHandler)
}

func startWebsockets(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, registry *tenant.Registry, dispatcher *relay.Dispatcher) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for _, profile := range registry.Profiles() {
				if profile.Config.InboundMode != config.InboundModeWebsocket {
					continue
				}
				go feishu.RunWebsocket(ctx, log, profile, dispatcher.Handle)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
