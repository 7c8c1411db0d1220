package app

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	loginhandler "github.com/coachflow/coaching-platform/internal/http/handlers/auth/login"
	registerhandler "github.com/coachflow/coaching-platform/internal/http/handlers/auth/register"
	leadcapture "github.com/coachflow/coaching-platform/internal/http/handlers/lead/capture"
	leadlist "github.com/coachflow/coaching-platform/internal/http/handlers/lead/list"
	leadupdate "github.com/coachflow/coaching-platform/internal/http/handlers/lead/update"
	checkoutcreate "github.com/coachflow/coaching-platform/internal/http/handlers/payment/checkoutcreate"
	"github.com/coachflow/coaching-platform/internal/http/handlers/payment/paymentwebhook"
	plancreate "github.com/coachflow/coaching-platform/internal/http/handlers/plan/create"
	planlist "github.com/coachflow/coaching-platform/internal/http/handlers/plan/list"
	profilelist "github.com/coachflow/coaching-platform/internal/http/handlers/profile/list"
	profileme "github.com/coachflow/coaching-platform/internal/http/handlers/profile/me"
	profileupdate "github.com/coachflow/coaching-platform/internal/http/handlers/profile/update"
	progresscreate "github.com/coachflow/coaching-platform/internal/http/handlers/progress/create"
	progresslist "github.com/coachflow/coaching-platform/internal/http/handlers/progress/list"
	"github.com/coachflow/coaching-platform/internal/http/middlewarectx"
	authservice "github.com/coachflow/coaching-platform/internal/services/auth"
	leadservice "github.com/coachflow/coaching-platform/internal/services/lead"
	paymentservice "github.com/coachflow/coaching-platform/internal/services/payment"
	planservice "github.com/coachflow/coaching-platform/internal/services/plan"
	profileservice "github.com/coachflow/coaching-platform/internal/services/profile"
	progressservice "github.com/coachflow/coaching-platform/internal/services/progress"
)

// Services перечисляет сервисы, которые обслуживают HTTP-маршруты.
type Services struct {
	Auth          *authservice.AuthService
	Profile       *profileservice.ProfileService
	Lead          *leadservice.LeadService
	Progress      *progressservice.ProgressService
	Plan          *planservice.PlanService
	Payment       *paymentservice.PaymentService
	WebhookSecret string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(50, 100)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки; анонимные записи идут через лимитер
		rl := middlewarectx.RateLimitMiddleware(limiter, logger)
		r.Post("/profiles", registerhandler.New(logger, s.Auth).ServeHTTP)
		r.Post("/sessions", loginhandler.New(logger, s.Auth).ServeHTTP)
		r.With(rl).Post("/leads", leadcapture.New(logger, s.Lead).ServeHTTP)
		r.Get("/plans", planlist.New(logger, s.Plan).ServeHTTP)
		r.With(rl).Post("/checkout-sessions", checkoutcreate.New(logger, s.Payment).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

			r.Get("/profiles/me", profileme.New(logger, s.Profile).ServeHTTP)
			r.Get("/profiles", profilelist.New(logger, s.Profile).ServeHTTP)
			r.Patch("/profiles/{uid}", profileupdate.New(logger, s.Profile).ServeHTTP)

			r.Get("/leads", leadlist.New(logger, s.Lead).ServeHTTP)
			r.Patch("/leads/{id}", leadupdate.New(logger, s.Lead).ServeHTTP)

			r.Post("/progress", progresscreate.New(logger, s.Progress).ServeHTTP)
			r.Get("/progress/{memberUID}", progresslist.New(logger, s.Progress).ServeHTTP)

			r.Post("/plans", plancreate.New(logger, s.Plan).ServeHTTP)
		})

		// Вебхук процессора: аутентификация HMAC-подписью, не токеном
		r.Post("/payment-webhooks", paymentwebhook.New(logger, s.Payment, s.WebhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
