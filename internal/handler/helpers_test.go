package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

func TestHandleServiceError_Status(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"client went away", context.Canceled, statusClientClosedRequest},
		{"wrapped cancellation", fmt.Errorf("load dashboard: %w", context.Canceled), statusClientClosedRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"session changed", domain.ErrSessionChanged, http.StatusConflict},
		{"pending", domain.ErrMutationPending, http.StatusConflict},
		{"backend failure", domain.NewRequestError(http.StatusInternalServerError, "db down"), http.StatusBadGateway},
		{"backend rejection", domain.NewRequestError(http.StatusForbidden, ""), http.StatusForbidden},
		{"not found", &domain.ErrNotFound{Resource: "business profile"}, http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, tt.err, zap.NewNop())
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleServiceError_CancellationIsQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := httptest.NewRecorder()

	handleServiceError(rec, context.Canceled, zap.New(core))

	assert.Equal(t, statusClientClosedRequest, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("request cancelled").Len())
}
