package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/app"
	"github.com/uplug/einvoice-bfa-go/internal/config"
	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/infra/store"
)

// fakeBackend answers the default endpoints with enveloped JSON and counts hits.
type fakeBackend struct {
	mu        sync.Mutex
	hits      map[string]int
	profile   *domain.BusinessProfile
	statsCode int
}

func (b *fakeBackend) hit(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[name]++
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[name]
}

func envelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"code": status, "message": http.StatusText(status), "data": data})
}

func (b *fakeBackend) routes() http.Handler {
	e := config.DefaultEndpoints()
	r := chi.NewRouter()

	r.Post(e.Login, func(w http.ResponseWriter, r *http.Request) {
		b.hit("login")
		var req domain.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct-horse" {
			envelope(w, http.StatusUnauthorized, nil)
			return
		}
		envelope(w, http.StatusOK, domain.AccountLogin{Email: req.Email, Token: "jwt-token", BusinessProfile: b.profile})
	})
	r.Post(e.Logout, func(w http.ResponseWriter, r *http.Request) {
		b.hit("logout")
		envelope(w, http.StatusOK, nil)
	})
	r.Post(e.PasswordResetDone, func(w http.ResponseWriter, r *http.Request) {
		b.hit("reset")
		envelope(w, http.StatusOK, domain.MessageResponse{Message: "Password updated"})
	})
	r.Post(e.TINVerification, func(w http.ResponseWriter, r *http.Request) {
		b.hit("tin")
		var req domain.TINVerificationRequest
		json.NewDecoder(r.Body).Decode(&req)
		envelope(w, http.StatusOK, domain.TINRecord{ID: "tin-req-1", TIN: req.TIN, Status: domain.TINVerified, BusinessName: "Acme Ltd"})
	})
	r.Post(e.BusinessProfile, func(w http.ResponseWriter, r *http.Request) {
		b.hit("createProfile")
		var req domain.CreateBusinessProfileRequest
		json.NewDecoder(r.Body).Decode(&req)
		envelope(w, http.StatusCreated, domain.BusinessProfile{ID: "biz-1", IndustryClassification: req.IndustryClassification})
	})
	r.Get(e.BusinessProfile, func(w http.ResponseWriter, r *http.Request) {
		b.hit("profile")
		if b.profile == nil {
			envelope(w, http.StatusNotFound, nil)
			return
		}
		envelope(w, http.StatusOK, b.profile)
	})
	r.Get(e.Invoices, func(w http.ResponseWriter, r *http.Request) {
		b.hit("invoices")
		envelope(w, http.StatusOK, []domain.Invoice{{ID: "inv-1", InvoiceNumber: "INV-001", Status: domain.InvoiceSent}})
	})
	r.Get(e.DashboardStats, func(w http.ResponseWriter, r *http.Request) {
		b.hit("stats")
		if b.statsCode != 0 {
			envelope(w, b.statsCode, nil)
			return
		}
		envelope(w, http.StatusOK, domain.DashboardStats{TotalInvoices: 9})
	})
	r.Get(e.ERPAdapters, func(w http.ResponseWriter, r *http.Request) {
		b.hit("adapters")
		envelope(w, http.StatusOK, []domain.ErpAdapter{{Name: "sap"}, {Name: "odoo"}})
	})
	r.Post("/api/erp/{system}/sync", func(w http.ResponseWriter, r *http.Request) {
		b.hit("erp.sync." + chi.URLParam(r, "system"))
		envelope(w, http.StatusOK, domain.ErpSyncResult{Success: true, Synced: 2})
	})
	return r
}

type env struct {
	backend *fakeBackend
	app     *app.App
	router  http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	b := &fakeBackend{hits: make(map[string]int)}
	srv := httptest.NewServer(b.routes())
	t.Cleanup(srv.Close)

	cfg := config.Load()
	cfg.APIBaseURL = srv.URL
	cfg.APIBasePath = ""
	cfg.Endpoints = config.DefaultEndpoints()
	cfg.TINAutoAdvance = true

	a, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{
		HTTPClient: srv.Client(),
		Persister:  store.NewMemory(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return &env{backend: b, app: a, router: a.Router()}
}

func (e *env) signIn(t *testing.T, onboarded bool) {
	t.Helper()
	require.NoError(t, e.app.Session.SetAuth(context.Background(), "jwt-token", domain.UserFromEmail("ada@acme.ng"), onboarded, nil))
}
