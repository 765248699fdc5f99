package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/fulfillment-router/api/routes"
	"github.com/angelmondragon/fulfillment-router/internal/catalog"
	"github.com/angelmondragon/fulfillment-router/internal/ledger"
	"github.com/angelmondragon/fulfillment-router/internal/notifications"
	"github.com/angelmondragon/fulfillment-router/internal/orders"
	"github.com/angelmondragon/fulfillment-router/internal/pricing"
	"github.com/angelmondragon/fulfillment-router/internal/vendors"
	"github.com/angelmondragon/fulfillment-router/pkg/config"
	"github.com/angelmondragon/fulfillment-router/pkg/db"
	"github.com/angelmondragon/fulfillment-router/pkg/instance"
	"github.com/angelmondragon/fulfillment-router/pkg/logger"
	"github.com/angelmondragon/fulfillment-router/pkg/metrics"
	"github.com/angelmondragon/fulfillment-router/pkg/migrate"
	"github.com/angelmondragon/fulfillment-router/pkg/pubsub"
	"github.com/angelmondragon/fulfillment-router/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Fields:      map[string]string{"env": cfg.App.Env, "instance": instance.GetID()},
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and claim throttling disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	routingMetrics := metrics.NewRoutingMetrics(registry)

	fulfillerID, err := cfg.Routing.FulfillerID()
	if err != nil {
		return err
	}
	if fulfillerID == uuid.Nil {
		logg.Warn(ctx, "no fulfiller vendor configured; shop orders will be rejected")
	}

	conn := dbClient.DB()
	vendorSvc, err := vendors.NewService(vendors.NewRepository(conn), fulfillerID)
	if err != nil {
		return err
	}
	catalogRepo := catalog.NewRepository(conn)
	pricingRepo := pricing.NewRepository(conn)
	pricingSvc, err := pricing.NewService(pricingRepo, catalogRepo, vendorSvc, dbClient)
	if err != nil {
		return err
	}
	catalogSvc, err := catalog.NewService(catalogRepo, dbClient, pricingSvc)
	if err != nil {
		return err
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), pricingRepo, dbClient)
	if err != nil {
		return err
	}

	notificationsRepo := notifications.NewRepository(conn)
	notificationsSvc, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return err
	}
	storeSink, err := notifications.NewStoreSink(notificationsRepo)
	if err != nil {
		return err
	}
	sinks := notifications.Fanout{storeSink}

	publisher, closePubSub := notificationPublisher(ctx, cfg, logg)
	defer closePubSub()
	if publisher != nil {
		pubsubSink, err := notifications.NewPubSubSink(publisher)
		if err != nil {
			return err
		}
		sinks = append(sinks, pubsubSink)
	}
	dispatcher := notifications.NewDispatcher(sinks, logg, routingMetrics, cfg.Routing.NotifyTimeout)
	defer dispatcher.Wait()

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(conn),
		Tx:         dbClient,
		Catalog:    catalogSvc,
		Vendors:    vendorSvc,
		Pricing:    pricingSvc,
		Ledger:     ledgerSvc,
		Notifier:   dispatcher,
		Metrics:    routingMetrics,
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithField(ctx, "addr", addr)
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ordersSvc,
			pricingSvc,
			catalogSvc,
			notificationsSvc,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// notificationPublisher connects to Pub/Sub when a GCP project is configured.
// Without one, events are only stored.
func notificationPublisher(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*gcppubsub.Publisher, func()) {
	if cfg.GCP.ProjectID == "" {
		logg.Warn(ctx, "gcp project not configured; notifications are stored only")
		return nil, func() {}
	}
	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "pubsub unavailable; notifications are stored only", err)
		return nil, func() {}
	}
	publisher := client.NotificationPublisher()
	return publisher, func() {
		if publisher != nil {
			publisher.Stop()
		}
		if err := client.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}
}
