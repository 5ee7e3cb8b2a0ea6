package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/app"
	"github.com/uplug/einvoice-bfa-go/internal/config"
	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// mockBackend answers the e-invoicing contract with enveloped JSON.
func mockBackend(t *testing.T, syncCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	e := config.DefaultEndpoints()
	var profile atomic.Pointer[domain.BusinessProfile]

	reply := func(w http.ResponseWriter, status int, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"code": status, "message": "ok", "data": data})
	}
	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer it-token"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+e.Login, func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		reply(w, http.StatusOK, domain.AccountLogin{Email: req.Email, Token: "it-token", BusinessProfile: profile.Load()})
	})
	mux.HandleFunc("POST "+e.TINVerification, func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		reply(w, http.StatusOK, domain.TINRecord{ID: "tin-req-9", TIN: "98765432-0001", Status: domain.TINVerified, BusinessName: "Integration Ltd"})
	})
	mux.HandleFunc("POST "+e.BusinessProfile, func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateBusinessProfileRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.TINRequestID != "tin-req-9" {
			reply(w, http.StatusBadRequest, nil)
			return
		}
		p := &domain.BusinessProfile{ID: "biz-it", IndustryClassification: req.IndustryClassification}
		profile.Store(p)
		reply(w, http.StatusCreated, p)
	})
	mux.HandleFunc("GET "+e.BusinessProfile, func(w http.ResponseWriter, r *http.Request) {
		if p := profile.Load(); p != nil {
			reply(w, http.StatusOK, p)
			return
		}
		reply(w, http.StatusNotFound, nil)
	})
	mux.HandleFunc("GET "+e.DashboardStats, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, domain.DashboardStats{TotalInvoices: 3 + int(syncCalls.Load())})
	})
	mux.HandleFunc("POST /api/erp/{system}/sync", func(w http.ResponseWriter, r *http.Request) {
		syncCalls.Add(1)
		reply(w, http.StatusOK, domain.ErpSyncResult{Success: true, Synced: 1})
	})
	mux.HandleFunc("POST "+e.Logout, func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, nil)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, base, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, base+path, rd)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

// TestIntegration_FullFlow drives the BFA over HTTP from sign-in through
// onboarding to an ERP sync, with the session held in Redis.
func TestIntegration_FullFlow(t *testing.T) {
	mr := miniredis.RunT(t)
	var syncCalls atomic.Int32
	backend := mockBackend(t, &syncCalls)

	cfg := config.Load()
	cfg.APIBaseURL = backend.URL
	cfg.APIBasePath = ""
	cfg.Endpoints = config.DefaultEndpoints()
	cfg.SessionBackend = "redis"
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	cfg.SessionRedisKey = "it-auth"
	cfg.TINAutoAdvance = true

	a, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{})
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	defer a.Close()

	bfa := httptest.NewServer(a.Router())
	defer bfa.Close()

	if code, _ := call(t, bfa.URL, http.MethodGet, "/readyz", ""); code != http.StatusOK {
		t.Fatalf("expected ready, got %d", code)
	}

	// --- Sign in ---
	code, body := call(t, bfa.URL, http.MethodPost, "/v1/auth/login", `{"email":"it@acme.ng","password":"pw"}`)
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d. Body: %s", code, body)
	}
	var login struct {
		RedirectTo string `json:"redirectTo"`
	}
	json.Unmarshal(body, &login)
	if login.RedirectTo != "/onboarding" {
		t.Errorf("expected redirect to /onboarding, got %q", login.RedirectTo)
	}

	stored, err := mr.Get("it-auth")
	if err != nil {
		t.Fatalf("session not in redis: %v", err)
	}
	if !strings.Contains(stored, `"token":"it-token"`) {
		t.Errorf("unexpected stored session: %s", stored)
	}

	if code, _ := call(t, bfa.URL, http.MethodGet, "/v1/dashboard", ""); code != http.StatusForbidden {
		t.Errorf("dashboard before onboarding: expected 403, got %d", code)
	}

	// --- Onboarding ---
	steps := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/v1/onboarding/tin", `{"tin":"98765432-0001"}`},
		{http.MethodPut, "/v1/onboarding/business", `{"industryClassification":"ENERGY","erpSolution":"SAGE"}`},
		{http.MethodPost, "/v1/onboarding/next", ""},
		{http.MethodPut, "/v1/onboarding/preferences", `{"reportingMethods":"BATCH","notificationPreferences":"SMS"}`},
		{http.MethodPost, "/v1/onboarding/submit", ""},
	}
	for _, s := range steps {
		if code, body := call(t, bfa.URL, s.method, s.path, s.body); code != http.StatusOK {
			t.Fatalf("%s %s: expected 200, got %d. Body: %s", s.method, s.path, code, body)
		}
	}

	stored, _ = mr.Get("it-auth")
	if !strings.Contains(stored, `"onboarded":true`) {
		t.Errorf("expected onboarded session in redis, got %s", stored)
	}

	// --- Main area ---
	code, body = call(t, bfa.URL, http.MethodGet, "/v1/dashboard", "")
	if code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d. Body: %s", code, body)
	}
	var dash domain.Dashboard
	json.Unmarshal(body, &dash)
	if dash.Stats == nil || dash.Stats.TotalInvoices != 3 {
		t.Errorf("unexpected dashboard: %s", body)
	}

	if code, body := call(t, bfa.URL, http.MethodPost, "/v1/erp/sage/sync", ""); code != http.StatusOK {
		t.Fatalf("erp sync: expected 200, got %d. Body: %s", code, body)
	}

	// the sync invalidated the invoices root, so stats are fetched again
	_, body = call(t, bfa.URL, http.MethodGet, "/v1/dashboard", "")
	json.Unmarshal(body, &dash)
	if dash.Stats == nil || dash.Stats.TotalInvoices != 4 {
		t.Errorf("expected refreshed stats after sync, got %s", body)
	}

	// --- Sign out ---
	if code, _ := call(t, bfa.URL, http.MethodPost, "/v1/auth/logout", ""); code != http.StatusOK {
		t.Errorf("logout: expected 200, got %d", code)
	}
	if code, _ := call(t, bfa.URL, http.MethodGet, "/v1/dashboard", ""); code != http.StatusUnauthorized {
		t.Errorf("dashboard after logout: expected 401, got %d", code)
	}
}

// TestIntegration_SessionSurvivesRestart rebuilds the app over the same Redis
// key and expects the operator to still be signed in.
func TestIntegration_SessionSurvivesRestart(t *testing.T) {
	mr := miniredis.RunT(t)
	var syncCalls atomic.Int32
	backend := mockBackend(t, &syncCalls)

	cfg := config.Load()
	cfg.APIBaseURL = backend.URL
	cfg.APIBasePath = ""
	cfg.Endpoints = config.DefaultEndpoints()
	cfg.SessionBackend = "redis"
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	cfg.SessionRedisKey = "it-auth"

	first, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{})
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	if _, err := first.Services.Auth.Login(context.Background(), "it@acme.ng", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	first.Close()

	second, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{})
	if err != nil {
		t.Fatalf("rebuild app: %v", err)
	}
	defer second.Close()

	bfa := httptest.NewServer(second.Router())
	defer bfa.Close()

	code, body := call(t, bfa.URL, http.MethodGet, "/v1/session", "")
	if code != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", code)
	}
	if !bytes.Contains(body, []byte(`"authenticated":true`)) {
		t.Errorf("expected restored session, got %s", body)
	}
	if bytes.Contains(body, []byte("it-token")) {
		t.Error("token must not be exposed")
	}
}

// TestIntegration_NotReadyWithoutRedis reports 503 when the session store is down.
func TestIntegration_NotReadyWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Load()
	cfg.SessionBackend = "redis"
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"

	a, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{})
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	defer a.Close()
	mr.Close()

	bfa := httptest.NewServer(a.Router())
	defer bfa.Close()

	if code, _ := call(t, bfa.URL, http.MethodGet, "/readyz", ""); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
}
