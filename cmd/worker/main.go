package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zachbush96/treelead-backend/internal/businesses"
	"github.com/zachbush96/treelead-backend/internal/consumers/leadmatch"
	"github.com/zachbush96/treelead-backend/internal/dispatch"
	"github.com/zachbush96/treelead-backend/internal/interests"
	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/internal/matching"
	"github.com/zachbush96/treelead-backend/pkg/config"
	"github.com/zachbush96/treelead-backend/pkg/db"
	"github.com/zachbush96/treelead-backend/pkg/geo"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/metrics"
	"github.com/zachbush96/treelead-backend/pkg/migrate"
	"github.com/zachbush96/treelead-backend/pkg/outbox/idempotency"
	"github.com/zachbush96/treelead-backend/pkg/pubsub"
	"github.com/zachbush96/treelead-backend/pkg/redis"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "dev migrations failed", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect to redis", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to create pubsub client", err)
		os.Exit(1)
	}
	defer pubsubClient.Close()

	runner, err := buildRunner(cfg, logg, dbClient, redisClient, pubsubClient)
	if err != nil {
		logg.Error(ctx, "failed to wire matching pipeline", err)
		os.Exit(1)
	}

	svc, err := NewService(ServiceParams{
		Config: cfg,
		Logger: logg,
		DB:     dbClient,
		Redis:  redisClient,
		PubSub: pubsubClient,
		Runner: runner,
	})
	if err != nil {
		logg.Error(ctx, "failed to build worker service", err)
		os.Exit(1)
	}

	maybeServeMetrics(ctx, cfg, logg)

	logg.Info(ctx, "worker starting")
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

func buildRunner(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, pubsubClient *pubsub.Client) (*leadmatch.Runner, error) {
	leadsRepo := leads.NewRepository(dbClient.DB())
	businessesRepo := businesses.NewRepository(dbClient.DB())
	interestsRepo := interests.NewRepository(dbClient.DB())

	var resolver geo.Resolver
	if cfg.Geo.Enabled() {
		client, err := geo.NewClient(cfg.Geo.BaseURL, geo.WithCountryCode(cfg.Geo.CountryCode))
		if err != nil {
			return nil, err
		}
		resolver = client
	}
	matcher := matching.NewMatcher(resolver)

	notifiers, err := buildNotifiers(cfg, logg)
	if err != nil {
		return nil, err
	}
	pipeline := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)
	dispatcher, err := dispatch.NewDispatcher(notifiers, pipeline, logg)
	if err != nil {
		return nil, err
	}

	matchSvc, err := matching.NewService(leadsRepo, businessesRepo, interestsRepo, matcher, dispatcher, logg)
	if err != nil {
		return nil, err
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		return nil, err
	}

	consumer, err := leadmatch.NewConsumer(matchSvc, manager, logg)
	if err != nil {
		return nil, err
	}
	return leadmatch.NewRunner(pubsubClient.LeadsSubscription(), consumer, logg)
}

func buildNotifiers(cfg *config.Config, logg *logger.Logger) ([]dispatch.Notifier, error) {
	email, err := dispatch.NewEmailNotifier(cfg.SMTP)
	if err != nil {
		return nil, err
	}
	notifiers := []dispatch.Notifier{email}

	if cfg.SMS.GatewayURL != "" {
		sms, err := dispatch.NewSMSNotifier(cfg.SMS)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, sms)
		return notifiers, nil
	}
	notifiers = append(notifiers, dispatch.NewConsoleSMSNotifier(logg))
	return notifiers, nil
}

func maybeServeMetrics(ctx context.Context, cfg *config.Config, logg *logger.Logger) {
	if cfg.App.MetricsPort == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		addr := ":" + cfg.App.MetricsPort
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()
}
