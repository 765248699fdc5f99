package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/fulfillment-router/api/controllers"
	ordercontrollers "github.com/angelmondragon/fulfillment-router/api/controllers/orders"
	"github.com/angelmondragon/fulfillment-router/api/middleware"
	"github.com/angelmondragon/fulfillment-router/internal/catalog"
	"github.com/angelmondragon/fulfillment-router/internal/notifications"
	"github.com/angelmondragon/fulfillment-router/internal/orders"
	"github.com/angelmondragon/fulfillment-router/internal/pricing"
	"github.com/angelmondragon/fulfillment-router/pkg/config"
	"github.com/angelmondragon/fulfillment-router/pkg/db"
	"github.com/angelmondragon/fulfillment-router/pkg/enums"
	"github.com/angelmondragon/fulfillment-router/pkg/logger"
	"github.com/angelmondragon/fulfillment-router/pkg/redis"
)

// NewRouter mounts every HTTP surface of the service. redisClient may be nil,
// in which case idempotency and claim throttling are skipped.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	ordersSvc orders.Service,
	pricingSvc pricing.Service,
	catalogSvc catalog.Service,
	notificationsSvc notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	claimPolicy := middleware.NewRateLimitPolicy(
		"claim",
		cfg.Routing.ClaimWindow,
		cfg.Routing.ClaimIPLimit,
		cfg.Routing.ClaimVendorLimit,
	)

	readiness := []controllers.ReadinessCheck{{Name: "db", Pinger: dbP}}
	idempotency := middleware.Idempotency(nil, logg)
	claimLimit := middleware.RateLimit(claimPolicy, nil, logg)
	if redisClient != nil {
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
		idempotency = middleware.Idempotency(redisClient, logg)
		claimLimit = middleware.RateLimit(claimPolicy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(idempotency)

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.RoleCustomer)).Post("/", ordercontrollers.Create(ordersSvc, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
			r.With(middleware.RequireRole(logg, enums.RoleCustomer)).Post("/{orderId}/cancel", ordercontrollers.Cancel(ordersSvc, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleVendor))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.VendorList(ordersSvc, logg))
				r.Get("/claimable", ordercontrollers.Claimable(ordersSvc, logg))
				r.With(claimLimit).Post("/{orderId}/claim", ordercontrollers.Claim(ordersSvc, logg))
				r.Post("/{orderId}/status", ordercontrollers.AdvanceStatus(ordersSvc, logg))
			})
			r.Route("/pricing", func(r chi.Router) {
				r.Get("/{productId}", controllers.VendorPricingView(pricingSvc, logg))
				r.Put("/{productId}", controllers.VendorPricingUpsert(pricingSvc, logg))
			})
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationsSvc, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsSvc, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsSvc, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
		r.Patch("/products/{productId}/pricing", controllers.AdminUpdateProductPricing(catalogSvc, logg))
	})

	return r
}
