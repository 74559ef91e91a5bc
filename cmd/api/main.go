package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/merch-checkout/api/routes"
	"github.com/angelmondragon/merch-checkout/internal/checkout"
	"github.com/angelmondragon/merch-checkout/internal/payments"
	"github.com/angelmondragon/merch-checkout/internal/sessions"
	"github.com/angelmondragon/merch-checkout/pkg/config"
	"github.com/angelmondragon/merch-checkout/pkg/db"
	"github.com/angelmondragon/merch-checkout/pkg/enums"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
	"github.com/angelmondragon/merch-checkout/pkg/metrics"
	"github.com/angelmondragon/merch-checkout/pkg/migrate"
	pkgredis "github.com/angelmondragon/merch-checkout/pkg/redis"
	"github.com/angelmondragon/merch-checkout/pkg/storage"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, err := openStorage(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, factory.Close())
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(promRegistry)

	sink, err := payments.NewWebhookSink(cfg.Payment, payments.WithWebhookLogger(logg))
	if err != nil {
		return fmt.Errorf("creating payment sink: %w", err)
	}
	submitter, err := payments.NewSubmitter(sink,
		payments.WithTimeout(cfg.Payment.Timeout),
		payments.WithSubmitterLogger(logg),
		payments.WithPaymentMetrics(checkoutMetrics),
	)
	if err != nil {
		return fmt.Errorf("creating payment submitter: %w", err)
	}

	pricing := checkout.Pricing{
		TaxRate:        cfg.Checkout.TaxRate,
		Shipping:       cfg.Checkout.ShippingFlat,
		Currency:       cfg.Checkout.Currency,
		DefaultCountry: cfg.Checkout.DefaultRegion,
	}
	registry, err := sessions.NewRegistry(factory, submitter, pricing,
		sessions.WithLogger(logg),
		sessions.WithMetrics(checkoutMetrics),
		sessions.WithIdleTTL(cfg.Checkout.SessionIdleTTL),
	)
	if err != nil {
		return fmt.Errorf("creating session registry: %w", err)
	}
	go registry.Run(ctx, cfg.Checkout.SessionSweepInterval)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"storage":  cfg.Storage.BackendKind().String(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, factory, registry, promRegistry),
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Factory, error) {
	switch cfg.Storage.BackendKind() {
	case enums.StorageBackendRedis:
		client, err := pkgredis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrapping redis: %w", err)
		}
		return storage.NewRedisFactory(client), nil
	case enums.StorageBackendSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrapping database: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(fmt.Errorf("running migrations: %w", err), client.Close())
		}
		return storage.NewSQLFactory(client), nil
	default:
		logg.Warn(ctx, "using in-memory cart storage; carts are lost on restart")
		return storage.NewMemoryFactory(), nil
	}
}
