package client

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// ListAdapters lists the ERP adapters configured on the backend.
func (c *Client) ListAdapters(ctx context.Context) ([]domain.ErpAdapter, error) {
	ctx, span := tracer.Start(ctx, "Client.ListAdapters")
	defer span.End()

	adapters, err := Do[[]domain.ErpAdapter](ctx, c, c.endpoints.ERPAdapters, Request{})
	if err != nil {
		return nil, err
	}
	if adapters == nil {
		adapters = []domain.ErpAdapter{}
	}
	return adapters, nil
}

// Run triggers push, pull or sync on one ERP system.
func (c *Client) Run(ctx context.Context, op domain.ErpOperation, system string) (*domain.ErpSyncResult, error) {
	ctx, span := tracer.Start(ctx, "Client.RunErp")
	defer span.End()
	span.SetAttributes(
		attribute.String("erp.operation", string(op)),
		attribute.String("erp.system", system),
	)

	var template string
	switch op {
	case domain.ErpPush:
		template = c.endpoints.ERPPush
	case domain.ErpPull:
		template = c.endpoints.ERPPull
	case domain.ErpSync:
		template = c.endpoints.ERPSync
	default:
		return nil, &domain.ErrValidation{Field: "operation", Message: fmt.Sprintf("unknown ERP operation %q", op)}
	}

	return Do[*domain.ErpSyncResult](ctx, c, path(template, system), Request{Method: http.MethodPost})
}
