package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
	"github.com/uplug/einvoice-bfa-go/internal/infra/observability"
	"github.com/uplug/einvoice-bfa-go/internal/onboarding"
	"github.com/uplug/einvoice-bfa-go/internal/service"
	"github.com/uplug/einvoice-bfa-go/internal/session"
)

var tracer = otel.Tracer("handler")

// Deps groups what the router serves. Readiness is optional and is probed by
// /readyz and /healthz (for example a Redis ping of the session backend).
type Deps struct {
	Services    *service.Services
	Session     *session.Store
	Wizard      *onboarding.Wizard
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	CORSOrigins []string
	Readiness   func(ctx context.Context) error
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := d.Services

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Cache", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Readiness))
	r.Get("/readyz", readyzHandler(d.Readiness, logger))
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/navigate", navigateHandler(d.Session, d.Metrics))
		r.Get("/session", sessionHandler(d.Session))
		r.Get("/metrics/cache", cacheMetricsHandler(d.Metrics))

		// =============================================
		// Auth (public)
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authLoginHandler(svc.Auth, d.Session, logger))
			r.Post("/setup", authSetupHandler(svc.Auth, logger))
			r.Post("/register", authRegisterHandler(svc.Auth, logger))
			r.Post("/logout", authLogoutHandler(svc.Auth, logger))
			r.Post("/password/forgot", authForgotPasswordHandler(svc.Auth, logger))
			r.Post("/password/reset", authResetPasswordHandler(svc.Auth, logger))
		})

		// =============================================
		// Onboarding (signed in, not yet onboarded)
		// =============================================
		r.Route("/onboarding", func(r chi.Router) {
			r.Use(RequireArea(guard.AreaOnboarding, d.Session, d.Metrics, logger))
			r.Get("/", onboardingStateHandler(d.Wizard))
			r.Post("/tin", onboardingVerifyTINHandler(d.Wizard, logger))
			r.Put("/business", onboardingBusinessHandler(d.Wizard))
			r.Put("/preferences", onboardingPreferencesHandler(d.Wizard))
			r.Post("/next", onboardingNextHandler(d.Wizard, logger))
			r.Post("/back", onboardingBackHandler(d.Wizard, logger))
			r.Post("/submit", onboardingSubmitHandler(d.Wizard, logger))
		})

		// =============================================
		// Main area (signed in and onboarded)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(RequireArea(guard.AreaProtected, d.Session, d.Metrics, logger))

			r.Get("/dashboard", dashboardHandler(svc.Dashboard, logger))

			r.Get("/invoices", listInvoicesHandler(svc.Invoices, logger))
			r.Get("/invoices/{invoiceId}", getInvoiceHandler(svc.Invoices, logger))

			r.Get("/erp/adapters", erpAdaptersHandler(svc.Erp, logger))
			r.Post("/erp/{system}/{operation}", erpRunHandler(svc.Erp, logger))

			r.Get("/einvoice/actions", einvoiceActionsHandler(svc.EInvoice, logger))
			r.Post("/einvoice/validate", einvoiceValidateHandler(svc.EInvoice, logger))
			r.Post("/einvoice/report", einvoiceReportHandler(svc.EInvoice, logger))
			r.Post("/einvoice/sign", einvoiceSignHandler(svc.EInvoice, logger))
			r.Get("/einvoice/taxpayer-logins", taxpayerLoginsHandler(svc.EInvoice, logger))
			r.Post("/einvoice/taxpayer-auth", taxpayerAuthHandler(svc.EInvoice, logger))
			r.Get("/einvoice/download/{irn}", einvoiceDownloadHandler(svc.EInvoice, logger))

			r.Get("/business/profile", businessProfileHandler(svc.Business, logger))
			r.Get("/business/{businessId}/api-keys", apiKeysHandler(svc.Business, logger))
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := []domain.ServiceHealth{{Name: "bfa", Status: "healthy"}}

		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			sh := domain.ServiceHealth{Name: "session-store", Status: "healthy"}
			if err := ready(ctx); err != nil {
				sh.Status = "degraded"
				sh.Detail = err.Error()
			}
			services = append(services, sh)
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
			}
		}
		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler(ready func(context.Context) error, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				logger.Warn("not ready", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func cacheMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.CacheSnapshot())
	}
}
