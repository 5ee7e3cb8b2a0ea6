package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/config"
	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/infra/client"
	"github.com/uplug/einvoice-bfa-go/internal/infra/observability"
	"github.com/uplug/einvoice-bfa-go/internal/infra/resilience"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newClient(t *testing.T, srv *httptest.Server, token string) *client.Client {
	t.Helper()
	return client.New(srv.URL, "", config.DefaultEndpoints(), client.Deps{
		HTTPClient: srv.Client(),
		Tokens:     staticToken(token),
		Breaker:    resilience.NewCircuitBreaker("api-test"),
		Bulkhead:   resilience.NewBulkhead(4),
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestCall_UnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":200,"message":"ok","data":{"id":"tin-1","tin":"12345678-0001","status":"VERIFIED","businessName":"Acme Ltd"}}`)
	}))
	defer srv.Close()

	rec, err := newClient(t, srv, "").VerifyTIN(context.Background(), "12345678-0001")
	require.NoError(t, err)
	assert.Equal(t, "tin-1", rec.ID)
	assert.Equal(t, "Acme Ltd", rec.BusinessName)
	assert.Equal(t, domain.TINVerified, rec.Status)
}

func TestCall_BodyWithoutEnvelopeIsReturnedUnchanged(t *testing.T) {
	cases := map[string]string{
		"bare object":  `{"id":"tin-1","tin":"x"}`,
		"code only":    `{"code":"X1","id":"tin-1"}`,
		"data only":    `{"data":{"id":"other"},"id":"tin-1"}`,
		"bare array":   `[1,2,3]`,
		"bare string":  `"hello"`,
		"bare literal": `42`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			}))
			defer srv.Close()

			resp, err := newClient(t, srv, "").Call(context.Background(), "/anything", client.Request{})
			require.NoError(t, err)
			assert.JSONEq(t, body, string(resp.JSON))
		})
	}
}

func TestCall_EnvelopeWithNullData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":"00","message":"done","data":null}`)
	}))
	defer srv.Close()

	resp, err := newClient(t, srv, "").Call(context.Background(), "/x", client.Request{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(resp.JSON))
}

func TestCall_NonSuccessUsesMessageField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"code":409,"message":"TIN already registered"}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, "").VerifyTIN(context.Background(), "12345678")
	var re *domain.RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusConflict, re.Status)
	assert.Equal(t, "TIN already registered", re.Message)
}

func TestCall_NonSuccessFallbackMessage(t *testing.T) {
	cases := map[string]func(w http.ResponseWriter){
		"text body": func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream exploded")
		},
		"json without message": func(w http.ResponseWriter) {
			writeJSON(w, http.StatusBadGateway, `{"error":"x"}`)
		},
		"non-string message": func(w http.ResponseWriter) {
			writeJSON(w, http.StatusBadGateway, `{"message":{"nested":true}}`)
		},
	}

	for name, respond := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				respond(w)
			}))
			defer srv.Close()

			_, err := newClient(t, srv, "").Call(context.Background(), "/x", client.Request{})
			var re *domain.RequestError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, "API Error: 502", re.Error())
		})
	}
}

func TestCall_TextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "If an account exists, a reset link has been sent.")
	}))
	defer srv.Close()

	msg, err := newClient(t, srv, "").RequestPasswordReset(context.Background(), "ada@acme.ng")
	require.NoError(t, err)
	assert.Equal(t, "If an account exists, a reset link has been sent.", msg.Message)
}

func TestCall_AttachesBearerTokenAndRequestID(t *testing.T) {
	var gotAuth, gotReqID, gotCT atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		gotReqID.Store(r.Header.Get("X-Request-ID"))
		gotCT.Store(r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusOK, `{"code":0,"data":[]}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, "tok-123").ListInvoices(context.Background(), domain.InvoiceFilters{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth.Load())
	assert.NotEmpty(t, gotReqID.Load())
	assert.Equal(t, "", gotCT.Load(), "GET without body must not claim a JSON body")
}

func TestCall_NoTokenNoAuthorizationHeader(t *testing.T) {
	var hadAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["Authorization"]
		hadAuth.Store(ok)
		writeJSON(w, http.StatusOK, `{"email":"ada@acme.ng","token":"t"}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, "").Login(context.Background(), &domain.LoginRequest{Email: "ada@acme.ng", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, hadAuth.Load())
}

func TestLogin_CredentialsOnlyInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/open/api/user/login", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body domain.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@acme.ng", body.Email)
		assert.Equal(t, "s3cret", body.Password)

		writeJSON(w, http.StatusOK, `{"code":200,"data":{"email":"ada@acme.ng","token":"jwt"}}`)
	}))
	defer srv.Close()

	login, err := newClient(t, srv, "").Login(context.Background(), &domain.LoginRequest{Email: "ada@acme.ng", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", login.Token)
	assert.Nil(t, login.BusinessProfile)
}

func TestCall_BasePathIsPrefixed(t *testing.T) {
	var gotPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer srv.Close()

	c := client.New(srv.URL+"/", "/dev", config.DefaultEndpoints(), client.Deps{HTTPClient: srv.Client()})
	_, err := c.GetAPIKeys(context.Background(), "biz 1")
	require.NoError(t, err)
	assert.Equal(t, "/dev/api/v1/business-profile/biz 1/api-keys", gotPath.Load())
}

func TestListInvoices_SendsFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paid", r.URL.Query().Get("status"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, `{"code":200,"data":[{"id":"inv-1","invoice_number":"INV-001","status":"paid","payable_amount":1500.5}]}`)
	}))
	defer srv.Close()

	invoices, err := newClient(t, srv, "t").ListInvoices(context.Background(), domain.InvoiceFilters{Status: domain.InvoicePaid, Limit: 10})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "INV-001", invoices[0].InvoiceNumber)
	assert.Equal(t, 1500.5, invoices[0].PayableAmount)
}

func TestListActions_TypeQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "REPORT", r.URL.Query().Get("type"))
		writeJSON(w, http.StatusOK, `{"code":200,"data":null}`)
	}))
	defer srv.Close()

	actions, err := newClient(t, srv, "t").ListActions(context.Background(), domain.ActionReport)
	require.NoError(t, err)
	assert.NotNil(t, actions)
	assert.Empty(t, actions)
}

func TestRunErp_Paths(t *testing.T) {
	var gotPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.Method + " " + r.URL.Path)
		writeJSON(w, http.StatusOK, `{"success":true,"synced":3}`)
	}))
	defer srv.Close()

	c := newClient(t, srv, "t")
	res, err := c.Run(context.Background(), domain.ErpSync, "sap")
	require.NoError(t, err)
	assert.Equal(t, "POST /api/erp/sap/sync", gotPath.Load())
	assert.Equal(t, 3, res.Synced)

	_, err = c.Run(context.Background(), domain.ErpOperation("delete"), "sap")
	var ve *domain.ErrValidation
	assert.True(t, errors.As(err, &ve))
}

func TestDo_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"code":200,"data":"not-a-profile"}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, "t").GetProfile(context.Background())
	var mr *domain.ErrMalformedResponse
	assert.True(t, errors.As(err, &mr))
}

func TestCall_NoRetryOnFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, `{"message":"boom"}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, "t").GetDashboardStats(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCall_UnauthorizedSurfacesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"token expired"}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, "stale").GetProfile(context.Background())
	assert.True(t, domain.IsStatus(err, http.StatusUnauthorized))
	assert.EqualError(t, err, "token expired")
}

func TestCall_RespectsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := newClient(t, srv, "t").GetDashboardStats(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCall_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := client.New(url, "", config.DefaultEndpoints(), client.Deps{})
	_, err := c.GetDashboardStats(context.Background())
	var es *domain.ErrExternalService
	assert.True(t, errors.As(err, &es))
}

func TestCall_CircuitOpensOnRepeatedServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newClient(t, srv, "t")
	for i := 0; i < 5; i++ {
		_, _ = c.GetDashboardStats(context.Background())
	}

	_, err := c.GetDashboardStats(context.Background())
	var co *domain.ErrCircuitOpen
	assert.True(t, errors.As(err, &co))
	assert.Equal(t, int32(5), calls.Load())
}
