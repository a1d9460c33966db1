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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"medusa-storefront/internal/cms"
	"medusa-storefront/internal/config"
	"medusa-storefront/internal/db"
	"medusa-storefront/internal/httpserver"
	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/medusa"
	"medusa-storefront/internal/metrics"
	"medusa-storefront/internal/migrate"
	"medusa-storefront/internal/money"
	cartrepo "medusa-storefront/internal/repository/cart"
	"medusa-storefront/internal/service/anonymous"
	cartsvc "medusa-storefront/internal/service/cart"
	productsvc "medusa-storefront/internal/service/product"
)

const (
	serviceName        = "storefront-api"
	registrySweepEvery = time.Minute
	registryIdleTTL    = 15 * time.Minute
	purgeEvery         = 10 * time.Minute
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api exited", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	normalizer, err := money.NewNormalizer(cfg.Medusa.MoneyMode)
	if err != nil {
		return err
	}
	commerce := medusa.New(medusa.Options{
		BaseURL:           cfg.Medusa.BaseURL(),
		Timeout:           cfg.Medusa.RequestTimeout,
		Money:             normalizer,
		PreferredCurrency: cfg.Medusa.PreferredCurrency,
		Logger:            logg,
		Metrics:           m,
	})
	content := cms.New(cms.Options{
		BaseURL: cfg.CMS.APIURL,
		Timeout: cfg.Medusa.RequestTimeout,
		Logger:  logg,
		Metrics: m,
	})

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	repo, closeRepo, err := openCartStore(runCtx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeRepo()

	registry := cartsvc.NewRegistry(commerce, repo, logg, registryIdleTTL,
		cartsvc.WithMaxContainers(cfg.CartStore.MaxContainers))
	go registry.Run(runCtx, registrySweepEvery)

	srv, err := httpserver.New(cfg.App.HTTPAddr, logg, httpserver.Deps{
		Auth:      commerce,
		Carts:     registry,
		Products:  productsvc.New(commerce),
		Content:   content,
		Sessions:  anonymous.New(cfg.CartStore.SessionTTL),
		CartRepo:  repo,
		Metrics:   m,
		Gatherer:  reg,
		CORS:      cfg.CORS,
		CartStore: cfg.CartStore,
		DraftMode: cfg.CMS.DraftMode,

		PreviewSecret: cfg.CMS.PreviewSecret,
		PreviewTTL:    cfg.CMS.PreviewTTL,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"addr":       cfg.App.HTTPAddr,
			"medusa_url": cfg.Medusa.BaseURL(),
			"cart_store": cfg.CartStore.Driver,
		}), "starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stopCh:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
	case runErr = <-serverErr:
		logg.Error(ctx, "server error", runErr)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	} else {
		logg.Info(ctx, "server stopped")
	}
	return runErr
}

// openCartStore builds the configured cart-id repository. The returned
// close function releases its connections.
func openCartStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (cartrepo.Repository, func(), error) {
	ttl := cfg.CartStore.SessionTTL
	switch cfg.CartStore.Driver {
	case config.CartStoreRedis:
		repo, err := cartrepo.NewRedis(ctx, cfg.Redis, ttl)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap redis cart store: %w", err)
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}, nil
	case config.CartStorePostgres:
		pool, err := db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to db: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		repo := cartrepo.NewPostgres(pool, ttl)
		go purgeExpired(ctx, repo, logg)
		return repo, pool.Close, nil
	default:
		return cartrepo.NewMemory(ttl), func() {}, nil
	}
}

func purgeExpired(ctx context.Context, repo *cartrepo.PostgresRepository, logg *logger.Logger) {
	ticker := time.NewTicker(purgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				logg.Error(ctx, "purge expired cart sessions", err)
				continue
			}
			if n > 0 {
				logg.Info(logg.WithField(ctx, "purged", n), "expired cart sessions purged")
			}
		}
	}
}
