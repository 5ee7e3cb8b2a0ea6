package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/guard"
	"github.com/uplug/einvoice-bfa-go/internal/infra/observability"
	"github.com/uplug/einvoice-bfa-go/internal/session"
)

// RequireArea runs the guard of area against the current session before every
// request. A missing token answers 401, an onboarding mismatch 403; both carry
// the redirect target so the front-end can navigate.
func RequireArea(area guard.Area, sess *session.Store, metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.Check(area, sess.Snapshot())
			if metrics != nil {
				metrics.IncrNavigation(string(d.Action))
			}
			if d.Rendered() {
				next.ServeHTTP(w, r)
				return
			}

			status := http.StatusForbidden
			msg := "not available at this stage"
			if d.RedirectTo == guard.PathLogin {
				status = http.StatusUnauthorized
				msg = "sign in required"
			}
			logger.Debug("guard redirect",
				zap.String("area", string(area)),
				zap.String("path", r.URL.Path),
				zap.String("redirect_to", d.RedirectTo),
			)
			writeJSON(w, status, errorResponse{Error: msg, RedirectTo: d.RedirectTo})
		})
	}
}
