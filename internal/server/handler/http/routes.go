package http

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/atinyakov/handmind/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps collects everything NewRouter wires together. Metrics,
// MetricsHandler, RateLimiter and Health are optional. Forwarded client
// addresses are honoured only from TrustedProxies.
type RouterDeps struct {
	Auth    *AuthHandler
	Modules *ModuleHandler
	Health  http.Handler

	Verifier middleware.TokenVerifier
	Users    middleware.UserLookup

	Metrics        *middleware.Metrics
	MetricsHandler http.Handler
	RateLimiter    *middleware.RateLimiter

	AllowedOrigins []string
	TrustedProxies []netip.Prefix
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewRouter constructs the HTTP handler serving the HandMind API.
//
// Routes:
//
//	POST   /api/auth/register  → Auth.Register (rate limited)
//	POST   /api/auth/login     → Auth.Login (rate limited)
//	GET    /api/auth/me        → Auth.Me (bearer token)
//	GET    /api/modules        → Modules.List
//	GET    /api/modules/{id}   → Modules.Get
//	POST   /api/modules        → Modules.Create (bearer token)
//	PUT    /api/modules/{id}   → Modules.Update (bearer token)
//	DELETE /api/modules/{id}   → Modules.Delete (bearer token)
//	GET    /healthz, /metrics
//
// Every request gets a request id, is logged, recovered from panics, passed
// through CORS and bounded by RequestTimeout. Bodies sent to /api must be JSON.
func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.TrustedRealIP(d.TrustedProxies))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Handler)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if d.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(d.RequestTimeout))
	}

	if d.Health != nil {
		r.Method(http.MethodGet, "/healthz", d.Health)
	}
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	requireAuth := middleware.BearerAuth(d.Verifier, d.Users, logger)

	r.Route("/api", func(r chi.Router) {
		// Requests without a body pass; bodies must be JSON.
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if d.RateLimiter != nil {
					r.Use(d.RateLimiter.Handler)
				}
				r.Post("/register", d.Auth.Register)
				r.Post("/login", d.Auth.Login)
			})
			r.With(requireAuth).Get("/me", d.Auth.Me)
		})

		r.Route("/modules", func(r chi.Router) {
			r.Get("/", d.Modules.List)
			r.Get("/{id}", d.Modules.Get)

			// Protected group: any authenticated user may mutate any module.
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", d.Modules.Create)
				r.Put("/{id}", d.Modules.Update)
				r.Delete("/{id}", d.Modules.Delete)
			})
		})
	})

	return r
}
