package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/service"
)

// ============================================================
// E-invoice actions
// ============================================================

func einvoiceActionsHandler(eSvc *service.EInvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/einvoice/actions")
		defer span.End()

		actionType := domain.ActionType(r.URL.Query().Get("type"))
		writeState(w, eSvc.Actions(ctx, actionType), logger)
	}
}

func einvoiceValidateHandler(eSvc *service.EInvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/einvoice/validate")
		defer span.End()

		var req domain.ValidateRequest
		if !decodeBody(w, r, &req) {
			return
		}

		rec, err := eSvc.Validate(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func einvoiceReportHandler(eSvc *service.EInvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/einvoice/report")
		defer span.End()

		var payload map[string]any
		if !decodeBody(w, r, &payload) {
			return
		}

		rec, err := eSvc.Report(ctx, payload)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func einvoiceSignHandler(eSvc *service.EInvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/einvoice/sign")
		defer span.End()

		var payload map[string]any
		if !decodeBody(w, r, &payload) {
			return
		}

		rec, err := eSvc.Sign(ctx, payload)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func taxpayerLoginsHandler(eSvc *service.EInvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/einvoice/taxpayer-logins")
		defer span.End()

		writeState(w, eSvc.TaxpayerLogins(ctx), logger)
	}
}

func taxpayerAuthHandler(eSvc *service.EInvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/einvoice/taxpayer-auth")
		defer span.End()

		var req domain.TaxpayerAuthRequest
		if !decodeBody(w, r, &req) {
			return
		}

		rec, err := eSvc.TaxpayerAuth(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func einvoiceDownloadHandler(eSvc *service.EInvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/einvoice/download/{irn}")
		defer span.End()

		writeState(w, eSvc.Download(ctx, chi.URLParam(r, "irn")), logger)
	}
}
