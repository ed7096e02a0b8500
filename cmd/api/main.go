package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zachbush96/treelead-backend/api/routes"
	"github.com/zachbush96/treelead-backend/internal/businesses"
	"github.com/zachbush96/treelead-backend/internal/dispatch"
	"github.com/zachbush96/treelead-backend/internal/interests"
	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/internal/payouts"
	"github.com/zachbush96/treelead-backend/internal/settlement"
	"github.com/zachbush96/treelead-backend/pkg/config"
	"github.com/zachbush96/treelead-backend/pkg/db"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/metrics"
	"github.com/zachbush96/treelead-backend/pkg/migrate"
	"github.com/zachbush96/treelead-backend/pkg/outbox"
	"github.com/zachbush96/treelead-backend/pkg/outbox/idempotency"
	"github.com/zachbush96/treelead-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	pipeline := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	businessesService, err := businesses.NewService(
		businesses.NewRepository(gormDB),
		logg,
		!cfg.FeatureFlags.RequireBuyerVerification,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create businesses service", err)
		os.Exit(1)
	}

	leadsService, err := leads.NewService(
		dbClient,
		leads.NewRepository(gormDB),
		businessesService,
		outboxService,
		pipeline,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create leads service", err)
		os.Exit(1)
	}

	payoutsService, err := payouts.NewService(payouts.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	idempotencyManager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	var confirmer *dispatch.SaleConfirmer
	if cfg.SMTP.Host != "" {
		confirmer, err = dispatch.NewSaleConfirmer(cfg.SMTP)
		if err != nil {
			logg.Error(context.Background(), "failed to create sale confirmer", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "smtp not configured, sale confirmations disabled")
	}

	settlementParams := settlement.ServiceParams{
		LeadsRepo:         leads.NewRepository(gormDB),
		BuyersRepo:        businesses.NewRepository(gormDB),
		InterestsRepo:     interests.NewRepository(gormDB),
		PayoutsRepo:       payouts.NewRepository(gormDB),
		Outbox:            outboxService,
		Idempotency:       idempotencyManager,
		TransactionRunner: dbClient,
		Logger:            logg,
		Pipeline:          pipeline,
	}
	if confirmer != nil {
		settlementParams.Confirmer = confirmer
	}
	settlementService, err := settlement.NewService(settlementParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:            cfg,
			Logger:            logg,
			Redis:             redisClient,
			DBPinger:          dbClient,
			RedisPinger:       redisClient,
			LeadsService:      leadsService,
			BusinessesService: businessesService,
			PayoutsService:    payoutsService,
			SettlementService: settlementService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
