package client

import (
	"context"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// ListActions lists the e-invoice action log, optionally narrowed to one type.
func (c *Client) ListActions(ctx context.Context, actionType domain.ActionType) ([]domain.EInvoiceActionRecord, error) {
	ctx, span := tracer.Start(ctx, "Client.ListActions")
	defer span.End()

	req := Request{}
	if actionType != "" {
		req.Query = url.Values{"type": {string(actionType)}}
	}
	actions, err := Do[[]domain.EInvoiceActionRecord](ctx, c, c.endpoints.EInvoiceActions, req)
	if err != nil {
		return nil, err
	}
	if actions == nil {
		actions = []domain.EInvoiceActionRecord{}
	}
	return actions, nil
}

// Validate submits an invoice document for validation.
func (c *Client) Validate(ctx context.Context, req *domain.ValidateRequest) (*domain.EInvoiceActionRecord, error) {
	ctx, span := tracer.Start(ctx, "Client.Validate")
	defer span.End()

	return Do[*domain.EInvoiceActionRecord](ctx, c, c.endpoints.EInvoiceValidate, Request{Method: http.MethodPost, Body: req})
}

// Report reports an invoice to the tax authority.
func (c *Client) Report(ctx context.Context, payload map[string]any) (*domain.EInvoiceActionRecord, error) {
	ctx, span := tracer.Start(ctx, "Client.Report")
	defer span.End()

	return Do[*domain.EInvoiceActionRecord](ctx, c, c.endpoints.EInvoiceReport, Request{Method: http.MethodPost, Body: payload})
}

// Sign signs an invoice.
func (c *Client) Sign(ctx context.Context, payload map[string]any) (*domain.InvoiceSigningRecord, error) {
	ctx, span := tracer.Start(ctx, "Client.Sign")
	defer span.End()

	return Do[*domain.InvoiceSigningRecord](ctx, c, c.endpoints.EInvoiceSign, Request{Method: http.MethodPost, Body: payload})
}

// ListTaxpayerLogins lists taxpayer authentications.
func (c *Client) ListTaxpayerLogins(ctx context.Context) ([]domain.TaxpayerAuthRecord, error) {
	ctx, span := tracer.Start(ctx, "Client.ListTaxpayerLogins")
	defer span.End()

	logins, err := Do[[]domain.TaxpayerAuthRecord](ctx, c, c.endpoints.TaxpayerLogins, Request{})
	if err != nil {
		return nil, err
	}
	if logins == nil {
		logins = []domain.TaxpayerAuthRecord{}
	}
	return logins, nil
}

// TaxpayerAuth starts a taxpayer authentication.
func (c *Client) TaxpayerAuth(ctx context.Context, req *domain.TaxpayerAuthRequest) (*domain.TaxpayerAuthRecord, error) {
	ctx, span := tracer.Start(ctx, "Client.TaxpayerAuth")
	defer span.End()

	return Do[*domain.TaxpayerAuthRecord](ctx, c, c.endpoints.TaxpayerAuth, Request{Method: http.MethodPost, Body: req})
}

// Download fetches an invoice by IRN.
func (c *Client) Download(ctx context.Context, irn string) (*domain.EInvoiceActionRecord, error) {
	ctx, span := tracer.Start(ctx, "Client.Download")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.irn", irn))

	return Do[*domain.EInvoiceActionRecord](ctx, c, path(c.endpoints.EInvoiceDownload, irn), Request{})
}
