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
	"github.com/adatechschool/MBB/services/session/internal/service"
)

// RouterConfig carries the router's environment-dependent settings.
type RouterConfig struct {
	Environment string
	CORS        middleware.CORSConfig
}

// NewRouter creates a chi router with all session service routes registered.
func NewRouter(
	sessionService *service.SessionService,
	issuer *token.Issuer,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("session"))
	r.Use(middleware.PrometheusMetrics("session"))

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

	cookies := newCookieWriter(cfg.Environment)
	sessionHandler := NewSessionHandler(sessionService, cookies, logger)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequestLogger(logger))

		r.Post("/add", sessionHandler.Create)
		r.Post("/refresh", sessionHandler.Refresh)
		r.Delete("/", sessionHandler.Delete)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/current", sessionHandler.Current)
			r.Delete("/{id}", sessionHandler.DeleteByID)
		})
	})

	return r
}
