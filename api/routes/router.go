package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zachbush96/treelead-backend/api/controllers"
	"github.com/zachbush96/treelead-backend/api/middleware"
	"github.com/zachbush96/treelead-backend/internal/businesses"
	"github.com/zachbush96/treelead-backend/internal/leads"
	"github.com/zachbush96/treelead-backend/internal/payouts"
	"github.com/zachbush96/treelead-backend/internal/settlement"
	"github.com/zachbush96/treelead-backend/pkg/config"
	"github.com/zachbush96/treelead-backend/pkg/logger"
	"github.com/zachbush96/treelead-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface needs.
type RouterParams struct {
	Config            *config.Config
	Logger            *logger.Logger
	Redis             *redis.Client
	DBPinger          controllers.Pinger
	RedisPinger       controllers.Pinger
	LeadsService      leads.Service
	BusinessesService businesses.Service
	PayoutsService    payouts.Service
	SettlementService *settlement.Service
}

// NewRouter wires the public forms, payment webhook, and admin surface.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(nil),
	)

	submitPolicy := middleware.NewSubmitRateLimitPolicy(
		"submit",
		cfg.RateLimit.SubmissionWindow,
		cfg.RateLimit.SubmissionIPLimit,
		cfg.RateLimit.SubmissionEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": params.DBPinger,
			"redis":    params.RedisPinger,
		}))
	})

	r.Route("/api/public/v1", func(r chi.Router) {
		r.Use(
			middleware.SubmitRateLimit(submitPolicy, params.Redis, logg),
			middleware.Idempotency(params.Redis, logg),
		)
		r.Post("/leads", controllers.SubmitLead(params.LeadsService, logg))
		r.Post("/buyers", controllers.SubmitBuyer(params.BusinessesService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", controllers.PaymentWebhook(params.SettlementService, cfg.Payment.WebhookSecret, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.AdminAuth(cfg.Admin.APIKey, logg),
			middleware.Idempotency(params.Redis, logg),
		)
		r.Post("/leads/{leadId}/rematch", controllers.AdminRematchLead(params.LeadsService, logg))
		r.Post("/leads/{leadId}/refund", controllers.AdminRefundLead(params.SettlementService, logg))
		r.Post("/buyers/{businessId}/verify", controllers.AdminVerifyBuyer(params.BusinessesService, logg))
		r.Get("/payouts", controllers.AdminListPayouts(params.PayoutsService, logg))
		r.Post("/payouts/{payoutId}/paid", controllers.AdminMarkPayoutPaid(params.PayoutsService, logg))
	})

	return r
}
