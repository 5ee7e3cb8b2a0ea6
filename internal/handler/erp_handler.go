package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/service"
)

// ============================================================
// ERP integrations
// ============================================================

func erpAdaptersHandler(erpSvc *service.ErpService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/erp/adapters")
		defer span.End()

		writeState(w, erpSvc.Adapters(ctx), logger)
	}
}

// erpRunHandler triggers push, pull or sync on one adapter.
func erpRunHandler(erpSvc *service.ErpService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/erp/{system}/{operation}")
		defer span.End()

		op := domain.ErpOperation(chi.URLParam(r, "operation"))
		res, err := erpSvc.Run(ctx, op, chi.URLParam(r, "system"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
