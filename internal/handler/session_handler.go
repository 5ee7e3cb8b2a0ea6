package handler

import (
	"net/http"
	"time"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
	"github.com/uplug/einvoice-bfa-go/internal/infra/observability"
	"github.com/uplug/einvoice-bfa-go/internal/session"
)

// ============================================================
// Session & navigation
// ============================================================

// sessionView is the session as the front-end sees it. The token never
// leaves the BFA.
type sessionView struct {
	Authenticated   bool                    `json:"authenticated"`
	User            *domain.UserInfo        `json:"user"`
	Onboarded       bool                    `json:"onboarded"`
	BusinessProfile *domain.BusinessProfile `json:"businessProfile"`
	TokenExpiresAt  *time.Time              `json:"tokenExpiresAt,omitempty"`
	Landing         string                  `json:"landing"`
}

func newSessionView(sess *session.Store) sessionView {
	s := sess.Snapshot()
	v := sessionView{
		Authenticated:   s.Authenticated(),
		User:            s.User,
		Onboarded:       s.Onboarded,
		BusinessProfile: s.BusinessProfile,
		Landing:         guard.Landing(s),
	}
	if exp, err := sess.TokenExpiry(); err == nil {
		v.TokenExpiresAt = &exp
	}
	return v
}

func sessionHandler(sess *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newSessionView(sess))
	}
}

// navigateHandler resolves ?path= against the route table and the current
// session. It always answers 200; the decision says whether to render.
func navigateHandler(sess *session.Store, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/navigate")
		defer span.End()

		d := guard.Resolve(r.URL.Query().Get("path"), sess.Snapshot())
		if metrics != nil {
			metrics.IncrNavigation(string(d.Action))
		}
		writeJSON(w, http.StatusOK, d)
	}
}
