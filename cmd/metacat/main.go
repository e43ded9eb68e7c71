// Command metacat runs the metadata catalog backoffice service.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/curation-works/metacat/pkg/api"
	"github.com/curation-works/metacat/pkg/catalog"
	"github.com/curation-works/metacat/pkg/config"
	"github.com/curation-works/metacat/pkg/groups"
	"github.com/curation-works/metacat/pkg/notify"
	"github.com/curation-works/metacat/pkg/observability"
	"github.com/curation-works/metacat/pkg/relink"
	"github.com/curation-works/metacat/pkg/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	ctx := context.Background()

	var (
		db          *sql.DB
		recordStore catalog.RecordStore
		groupIndex  api.GroupDirectory
		memberIndex catalog.MembershipIndex
	)
	switch cfg.Storage.Type {
	case "postgres":
		db, err = store.OpenPostgres(cfg.Storage)
		if err != nil {
			logger.WithError(err).Error("failed to connect to postgres")
			os.Exit(1)
		}
		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Error("failed to ensure schema")
			os.Exit(1)
		}
		recordStore = pg
		groupStore := groups.NewPostgresStore(db)
		groupIndex = groupStore
		memberIndex = groupStore
	default:
		recordStore = store.NewMemoryStore()
		memStore := groups.NewMemoryStore()
		groupIndex = memStore
		memberIndex = memStore
		logger.Warn("running with in-memory storage; data will not survive a restart")
	}

	var redisClient *redis.Client
	if cfg.Storage.CacheEnabled {
		redisClient, err = store.NewRedisClient(cfg.Storage)
		if err != nil {
			logger.WithError(err).Error("failed to connect to redis")
			os.Exit(1)
		}
		recordStore = store.NewCachedStore(recordStore, store.CacheOptions{
			Redis:   redisClient,
			L1Size:  cfg.Storage.L1CacheSize,
			L1TTL:   cfg.Storage.L1CacheTTL,
			TTL:     cfg.Storage.CacheTTL,
			Logger:  logger,
			Metrics: metrics,
		})
	}

	var notifier catalog.Notifier
	if cfg.Notify.EmailServiceURL != "" {
		notifier = notify.NewHTTPNotifier(cfg.Notify.EmailServiceURL, notify.Options{
			RecipientGroup: cfg.Notify.RecipientGroup,
			Timeout:        cfg.Notify.Timeout,
			Logger:         logger,
			Metrics:        metrics,
		})
	} else {
		notifier = notify.NopNotifier{}
		logger.Warn("no email sender service configured; review notifications disabled")
	}

	var relinker catalog.Relinker
	if cfg.Relink.ConverterServiceURL != "" {
		relinker = relink.NewRelinker(
			relink.NewConverterClient(cfg.Relink.ConverterServiceURL, cfg.Relink.Timeout),
			relink.RelinkerOptions{
				Workers: cfg.Relink.Workers,
				Timeout: cfg.Relink.Timeout,
				Logger:  logger,
			})
	} else {
		logger.Warn("no converter service configured; plugin relation relinking disabled")
	}

	catalogService := catalog.NewService(recordStore, memberIndex, catalog.Options{
		Evaluator:         catalog.PermissionEvaluator{OpenAccessNoGroups: cfg.Catalog.OpenAccessNoGroups},
		Notifier:          notifier,
		Relinker:          relinker,
		Logger:            logger,
		Metrics:           metrics,
		SideEffectTimeout: cfg.Catalog.SideEffectTimeout,
	})

	apiServer := api.NewServer(catalogService, groupIndex, api.ServerOptions{
		Logger:  logger,
		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.Register("health server", healthServer.Shutdown)
	if db != nil {
		shutdown.Register("database", func(context.Context) error { return db.Close() })
	}
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })
	}

	var g errgroup.Group
	g.Go(func() error {
		logger.WithField("addr", server.Addr).Info("catalog API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health endpoint listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(shutdown.Wait)

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}
