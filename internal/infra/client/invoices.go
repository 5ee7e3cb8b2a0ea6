package client

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// ListInvoices lists invoices matching filters.
func (c *Client) ListInvoices(ctx context.Context, filters domain.InvoiceFilters) ([]domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Client.ListInvoices")
	defer span.End()

	invoices, err := Do[[]domain.Invoice](ctx, c, c.endpoints.Invoices, Request{Query: filters.Query()})
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []domain.Invoice{}
	}
	return invoices, nil
}

// GetInvoice fetches one invoice.
func (c *Client) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Client.GetInvoice")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", id))

	return Do[*domain.Invoice](ctx, c, path(c.endpoints.Invoice, id), Request{})
}

// GetDashboardStats fetches the dashboard aggregates.
func (c *Client) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	ctx, span := tracer.Start(ctx, "Client.GetDashboardStats")
	defer span.End()

	return Do[*domain.DashboardStats](ctx, c, c.endpoints.DashboardStats, Request{})
}
