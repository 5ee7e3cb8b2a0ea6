package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/port"
	"github.com/uplug/einvoice-bfa-go/internal/query"
	"github.com/uplug/einvoice-bfa-go/internal/validation"
)

// InvoiceService reads invoices and dashboard stats.
type InvoiceService struct {
	api      port.InvoiceAPI
	queries  *query.Client
	validate *validation.Validator
	logger   *zap.Logger
}

// NewInvoiceService creates the invoice service.
func NewInvoiceService(api port.InvoiceAPI, queries *query.Client, v *validation.Validator, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{api: api, queries: queries, validate: v, logger: logger}
}

// List fetches invoices matching filters. Invalid filters fail without a request.
func (s *InvoiceService) List(ctx context.Context, filters domain.InvoiceFilters) query.State[[]domain.Invoice] {
	ctx, span := tracer.Start(ctx, "InvoiceService.List")
	defer span.End()

	if err := s.validate.Struct(filters); err != nil {
		return query.State[[]domain.Invoice]{Err: err, Status: query.StatusError}
	}

	key := query.NewKey(RootInvoices, "list", filters.Query().Encode())
	return query.Fetch(ctx, s.queries, key, func(ctx context.Context) ([]domain.Invoice, error) {
		return s.api.ListInvoices(ctx, filters)
	})
}

// Get fetches one invoice. Disabled while id is empty.
func (s *InvoiceService) Get(ctx context.Context, id string) query.State[*domain.Invoice] {
	ctx, span := tracer.Start(ctx, "InvoiceService.Get")
	defer span.End()

	return query.Fetch(ctx, s.queries, query.NewKey(RootInvoices, "detail", id),
		func(ctx context.Context) (*domain.Invoice, error) {
			return s.api.GetInvoice(ctx, id)
		},
		query.Enabled(id != ""),
	)
}

// DashboardStats fetches the dashboard aggregates.
func (s *InvoiceService) DashboardStats(ctx context.Context) query.State[*domain.DashboardStats] {
	ctx, span := tracer.Start(ctx, "InvoiceService.DashboardStats")
	defer span.End()

	return query.Fetch(ctx, s.queries, query.NewKey(RootInvoices, "dashboard"), s.api.GetDashboardStats)
}
