package signalsapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	// Регистрация swagger-документации.
	_ "github.com/magabrotheeeer/trading-signals/docs"
	"github.com/magabrotheeeer/trading-signals/internal/grpc/client"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/account/credentials"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/account/me"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/account/password"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/account/profile"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/admin/assign"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/admin/assigned"
	adminpayments "github.com/magabrotheeeer/trading-signals/internal/http/handlers/admin/payments"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/admin/review"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/admin/revoke"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/admin/role"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/admin/stats"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/health"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/notify"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/payment/checkout"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/payment/confirm"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/payment/history"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/plans"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/signals/create"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/signals/list"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/signals/remove"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/signals/stream"
	"github.com/magabrotheeeer/trading-signals/internal/http/handlers/subscription"
	"github.com/magabrotheeeer/trading-signals/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trading-signals/internal/hub"
	"github.com/magabrotheeeer/trading-signals/internal/metrics"
	"github.com/magabrotheeeer/trading-signals/internal/services/access"
	"github.com/magabrotheeeer/trading-signals/internal/services/admin"
	"github.com/magabrotheeeer/trading-signals/internal/services/payment"
	profileservice "github.com/magabrotheeeer/trading-signals/internal/services/profile"
	"github.com/magabrotheeeer/trading-signals/internal/services/signal"
	"github.com/magabrotheeeer/trading-signals/internal/telegram"
)

// Deps зависимости HTTP-маршрутов.
type Deps struct {
	Logger       *slog.Logger
	AuthClient   *client.AuthClient
	Access       *access.Service
	Profile      *profileservice.Service
	Payments     *payment.Service
	Admin        *admin.Service
	Signals      *signal.Service
	Hub          *hub.Hub
	Telegram     *telegram.Client
	Metrics      *metrics.Metrics
	Limiter      *rate.Limiter
	LoginLimiter *middlewarectx.LoginLimiter
	Health       map[string]health.Check
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	logger := d.Logger

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		d.Metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, d.Limiter))

		// Открытые конечные точки
		r.Get("/health", health.New(logger, d.Health).ServeHTTP)
		r.Get("/plans", plans.ServeHTTP)
		r.Post("/register", register.New(logger, d.AuthClient).ServeHTTP)
		r.With(d.LoginLimiter.Handler).Post("/login", login.New(logger, d.AuthClient).ServeHTTP)
		r.With(d.LoginLimiter.Handler).Post("/admin/login", login.NewAdmin(logger, d.AuthClient).ServeHTTP)

		// Webhook подписан ключом Paystack, JWT не нужен
		r.Post("/payments/webhook", webhook.New(logger, d.Payments).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.AuthClient, logger))

			r.Get("/me", me.New(logger, d.Profile).ServeHTTP)
			r.Put("/me/profile", profile.New(logger, d.Profile).ServeHTTP)
			r.Put("/me/account", credentials.New(logger, d.AuthClient).ServeHTTP)
			r.Put("/me/password", password.New(logger, d.AuthClient).ServeHTTP)

			r.Get("/subscription", subscription.New(logger, d.Access).ServeHTTP)
			r.Post("/payments/checkout", checkout.New(logger, d.Payments).ServeHTTP)
			r.Post("/payments/confirm", confirm.New(logger, d.Payments).ServeHTTP)
			r.Get("/payments", history.New(logger, d.Payments).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequirePlan(logger, d.Access))
				r.Get("/signals", list.New(logger, d.Signals).ServeHTTP)
				r.Get("/signals/ws", stream.New(logger, d.Hub, d.Access).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))
				r.Post("/signals", create.New(logger, d.Signals).ServeHTTP)
				r.Delete("/signals/{id}", remove.New(logger, d.Signals).ServeHTTP)
				r.Post("/notify/telegram", notify.New(logger, d.Telegram).ServeHTTP)

				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", stats.New(logger, d.Admin).ServeHTTP)
					r.Get("/users", users.New(logger, d.Admin).ServeHTTP)
					r.Put("/users/{uid}/role", role.New(logger, d.Admin).ServeHTTP)
					r.Get("/payments", adminpayments.New(logger, d.Admin).ServeHTTP)
					r.Post("/payments/{id}/approve", review.NewApprove(logger, d.Admin).ServeHTTP)
					r.Post("/payments/{id}/reject", review.NewReject(logger, d.Admin).ServeHTTP)
					r.Post("/plans/assign", assign.New(logger, d.Admin).ServeHTTP)
					r.Get("/plans/assigned", assigned.New(logger, d.Admin).ServeHTTP)
					r.Post("/plans/revoke", revoke.New(logger, d.Admin).ServeHTTP)
				})
			})
		})
	})

	r.Handle("/metrics", metrics.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
