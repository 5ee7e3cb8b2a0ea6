package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/port"
	"github.com/uplug/einvoice-bfa-go/internal/query"
	"github.com/uplug/einvoice-bfa-go/internal/validation"
)

// EInvoiceService covers the e-invoice action log and its write actions.
type EInvoiceService struct {
	api      port.EInvoiceAPI
	queries  *query.Client
	validate *validation.Validator
	logger   *zap.Logger

	validateInvoice *query.Mutation[domain.ValidateRequest, *domain.EInvoiceActionRecord]
	report          *query.Mutation[map[string]any, *domain.EInvoiceActionRecord]
	sign            *query.Mutation[map[string]any, *domain.InvoiceSigningRecord]
	taxpayerAuth    *query.Mutation[domain.TaxpayerAuthRequest, *domain.TaxpayerAuthRecord]
}

// NewEInvoiceService creates the e-invoice service.
func NewEInvoiceService(api port.EInvoiceAPI, queries *query.Client, v *validation.Validator, logger *zap.Logger) *EInvoiceService {
	return &EInvoiceService{
		api:      api,
		queries:  queries,
		validate: v,
		logger:   logger,

		validateInvoice: query.NewMutation(queries, "einvoice.validate",
			func(ctx context.Context, req domain.ValidateRequest) (*domain.EInvoiceActionRecord, error) {
				return api.Validate(ctx, &req)
			}, RootEInvoice),
		report: query.NewMutation(queries, "einvoice.report", api.Report, RootEInvoice),
		sign:   query.NewMutation(queries, "einvoice.sign", api.Sign, RootEInvoice),
		taxpayerAuth: query.NewMutation(queries, "einvoice.taxpayerAuth",
			func(ctx context.Context, req domain.TaxpayerAuthRequest) (*domain.TaxpayerAuthRecord, error) {
				return api.TaxpayerAuth(ctx, &req)
			}, RootEInvoice),
	}
}

// Actions lists the action log, optionally narrowed to one action type.
func (s *EInvoiceService) Actions(ctx context.Context, actionType domain.ActionType) query.State[[]domain.EInvoiceActionRecord] {
	ctx, span := tracer.Start(ctx, "EInvoiceService.Actions")
	defer span.End()

	if actionType != "" && !actionType.Valid() {
		return query.State[[]domain.EInvoiceActionRecord]{
			Err:    &domain.ErrValidation{Field: "type", Message: "unknown action type " + string(actionType)},
			Status: query.StatusError,
		}
	}

	filter := string(actionType)
	if filter == "" {
		filter = "all"
	}
	return query.Fetch(ctx, s.queries, query.NewKey(RootEInvoice, "actions", filter),
		func(ctx context.Context) ([]domain.EInvoiceActionRecord, error) {
			return s.api.ListActions(ctx, actionType)
		},
	)
}

// Validate submits an invoice document for validation.
func (s *EInvoiceService) Validate(ctx context.Context, req domain.ValidateRequest) (*domain.EInvoiceActionRecord, error) {
	ctx, span := tracer.Start(ctx, "EInvoiceService.Validate")
	defer span.End()

	if len(req.Invoice) == 0 {
		return nil, &domain.ErrValidation{Field: "invoice", Message: "invoice document is required"}
	}
	return s.validateInvoice.Mutate(ctx, req)
}

// Report reports an invoice to the tax authority.
func (s *EInvoiceService) Report(ctx context.Context, payload map[string]any) (*domain.EInvoiceActionRecord, error) {
	ctx, span := tracer.Start(ctx, "EInvoiceService.Report")
	defer span.End()

	if len(payload) == 0 {
		return nil, &domain.ErrValidation{Field: "payload", Message: "report payload is required"}
	}
	return s.report.Mutate(ctx, payload)
}

// Sign signs an invoice.
func (s *EInvoiceService) Sign(ctx context.Context, payload map[string]any) (*domain.InvoiceSigningRecord, error) {
	ctx, span := tracer.Start(ctx, "EInvoiceService.Sign")
	defer span.End()

	if len(payload) == 0 {
		return nil, &domain.ErrValidation{Field: "payload", Message: "sign payload is required"}
	}
	return s.sign.Mutate(ctx, payload)
}

// TaxpayerLogins lists taxpayer authentications.
func (s *EInvoiceService) TaxpayerLogins(ctx context.Context) query.State[[]domain.TaxpayerAuthRecord] {
	ctx, span := tracer.Start(ctx, "EInvoiceService.TaxpayerLogins")
	defer span.End()

	return query.Fetch(ctx, s.queries, query.NewKey(RootEInvoice, "taxpayerLogins"), s.api.ListTaxpayerLogins)
}

// TaxpayerAuth starts a taxpayer authentication.
func (s *EInvoiceService) TaxpayerAuth(ctx context.Context, req domain.TaxpayerAuthRequest) (*domain.TaxpayerAuthRecord, error) {
	ctx, span := tracer.Start(ctx, "EInvoiceService.TaxpayerAuth")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	return s.taxpayerAuth.Mutate(ctx, req)
}

// Download fetches an invoice by IRN. Disabled while irn is empty.
func (s *EInvoiceService) Download(ctx context.Context, irn string) query.State[*domain.EInvoiceActionRecord] {
	ctx, span := tracer.Start(ctx, "EInvoiceService.Download")
	defer span.End()

	return query.Fetch(ctx, s.queries, query.NewKey(RootEInvoice, "download", irn),
		func(ctx context.Context) (*domain.EInvoiceActionRecord, error) {
			return s.api.Download(ctx, irn)
		},
		query.Enabled(irn != ""),
	)
}
