// Package httpapi exposes the session service over HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/aidemoi/aidemoi/internal/logging"
	"github.com/aidemoi/aidemoi/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultRequestTimeout = 30 * time.Second

type SessionService interface {
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (*services.UserView, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenBlock, error)
	Logout(ctx context.Context, accessToken string) services.LogoutResult
	LogoutAll(ctx context.Context, userID int64) (int64, error)
	GetProfile(ctx context.Context, userID int64) (*services.UserView, error)
}

type RouterOptions struct {
	Sessions SessionService
	Verifier TokenVerifier

	// Ready backs /readyz. Nil means always ready.
	Ready func(context.Context) error

	Logger         logging.Logger
	RequestTimeout time.Duration

	// Registry receives the API collectors and is served on /metrics.
	// Nil uses the Prometheus default registry.
	Registry *prometheus.Registry

	ServiceName string
}

type API struct {
	sessions SessionService
	ready    func(context.Context) error
	logger   logging.Logger
	metrics  *Metrics
}

// Router builds the chi router with auth, health, readiness and metrics
// routes, wrapped in OpenTelemetry HTTP instrumentation.
func Router(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "aidemoi-auth"
	}

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.Registry != nil {
		registerer, gatherer = opts.Registry, opts.Registry
	}

	a := &API{
		sessions: opts.Sessions,
		ready:    opts.Ready,
		logger:   logger.With("module", "http_api"),
		metrics:  NewMetrics(registerer),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(a.metrics.Middleware)

	r.Get("/healthz", a.handleHealth)
	r.Get("/readyz", a.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", a.handleLogin)
		r.Post("/register", a.handleRegister)
		r.Post("/refresh", a.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(opts.Verifier))
			r.Get("/profile", a.handleProfile)
			r.Post("/logout", a.handleLogout)
			r.Post("/logout-all", a.handleLogoutAll)
		})
	})

	return otelhttp.NewHandler(r, serviceName)
}
