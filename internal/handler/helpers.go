package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/onboarding"
	"github.com/uplug/einvoice-bfa-go/internal/query"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error      string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
	RedirectTo string            `json:"redirectTo,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeBody decodes a JSON request body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeState answers with the data of a query, flagging cache hits in X-Cache.
func writeState[T any](w http.ResponseWriter, st query.State[T], logger *zap.Logger) {
	switch st.Status {
	case query.StatusError:
		handleServiceError(w, st.Err, logger)
		return
	case query.StatusDisabled:
		writeError(w, http.StatusBadRequest, "missing required parameter")
		return
	}
	if st.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, st.Data)
}

// statusClientClosedRequest is the nginx convention for a request the client
// abandoned before the response was ready.
const statusClientClosedRequest = 499

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var fields *domain.ValidationErrors
	var validation *domain.ErrValidation
	var requestErr *domain.RequestError
	var notFound *domain.ErrNotFound
	var unauthorized *domain.ErrUnauthorized
	var circuitOpen *domain.ErrCircuitOpen
	var malformed *domain.ErrMalformedResponse
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &fields):
		logger.Debug("form validation failed", zap.Any("fields", fields.Fields))
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Fields: fields.Fields})
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  validation.Message,
			Fields: map[string]string{validation.Field: validation.Message},
		})
	case errors.Is(err, domain.ErrMutationPending), errors.Is(err, onboarding.ErrWrongStep), errors.Is(err, domain.ErrSessionChanged):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &requestErr):
		// backend rejections keep their status; backend failures become 502
		status := requestErr.Status
		if status >= 500 {
			logger.Error("backend error", zap.Int("status", status), zap.Error(err))
			status = http.StatusBadGateway
		} else {
			logger.Debug("backend rejected request", zap.Int("status", status), zap.Error(err))
		}
		writeError(w, status, requestErr.Message)
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &malformed):
		logger.Error("malformed backend response", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled):
		// the client went away; nobody reads the body
		logger.Debug("request cancelled", zap.Error(err))
		w.WriteHeader(statusClientClosedRequest)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, "backend timeout")
	case errors.As(err, &external):
		logger.Error("backend unreachable", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
