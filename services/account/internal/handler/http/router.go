package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adatechschool/MBB/pkg/health"
	"github.com/adatechschool/MBB/pkg/middleware"
	"github.com/adatechschool/MBB/pkg/token"
	"github.com/adatechschool/MBB/services/account/internal/service"
)

// NewRouter creates a chi router with all account service routes registered.
func NewRouter(
	accountService *service.AccountService,
	issuer *token.Issuer,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("account"))
	r.Use(middleware.PrometheusMetrics("account"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to the shared token issuer.
	tokenValidator := func(raw string) (*middleware.Claims, error) {
		claims, err := issuer.Verify(context.Background(), raw, token.KindAccess)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.UserID}, nil
	}

	accountHandler := NewAccountHandler(accountService, logger)

	r.Route("/api/v1/accounts", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequestLogger(logger))

		// Provisioning is called service-to-service during registration,
		// before the user holds any token.
		r.Post("/", accountHandler.Provision)

		// Profile endpoints require an access token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/{userID}", accountHandler.Get)
			r.Put("/{userID}", accountHandler.Update)
			r.Post("/{userID}/seen", accountHandler.TouchLastSeen)
			r.Delete("/{userID}", accountHandler.Delete)
		})
	})

	return r
}
