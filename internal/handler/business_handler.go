package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/service"
)

// ============================================================
// Business profile & settings
// ============================================================

func businessProfileHandler(bizSvc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/business/profile")
		defer span.End()

		writeState(w, bizSvc.Profile(ctx), logger)
	}
}

func apiKeysHandler(bizSvc *service.BusinessService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/business/{businessId}/api-keys")
		defer span.End()

		writeState(w, bizSvc.APIKeys(ctx, chi.URLParam(r, "businessId")), logger)
	}
}
