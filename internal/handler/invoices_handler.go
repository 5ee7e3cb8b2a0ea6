package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/service"
)

// ============================================================
// Dashboard & invoices
// ============================================================

func dashboardHandler(dashSvc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		d, err := dashSvc.Load(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, d)
	}
}

func listInvoicesHandler(invSvc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices")
		defer span.End()

		filters, ok := parseInvoiceFilters(w, r)
		if !ok {
			return
		}
		writeState(w, invSvc.List(ctx, filters), logger)
	}
}

func getInvoiceHandler(invSvc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/{invoiceId}")
		defer span.End()

		writeState(w, invSvc.Get(ctx, chi.URLParam(r, "invoiceId")), logger)
	}
}

func parseInvoiceFilters(w http.ResponseWriter, r *http.Request) (domain.InvoiceFilters, bool) {
	q := r.URL.Query()
	f := domain.InvoiceFilters{
		Status:   domain.InvoiceStatus(q.Get("status")),
		Search:   q.Get("search"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+name)
			return f, false
		}
		*dst = n
	}
	return f, true
}
