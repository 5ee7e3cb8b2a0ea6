package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/port"
	"github.com/uplug/einvoice-bfa-go/internal/query"
)

// ErpService lists ERP adapters and triggers push, pull and sync.
type ErpService struct {
	api     port.ErpAPI
	queries *query.Client
	logger  *zap.Logger

	ops map[domain.ErpOperation]*query.Mutation[string, *domain.ErpSyncResult]
}

// NewErpService creates the ERP service. Every operation invalidates both the
// erp and invoices roots since synced invoices change the invoice list.
func NewErpService(api port.ErpAPI, queries *query.Client, logger *zap.Logger) *ErpService {
	s := &ErpService{
		api:     api,
		queries: queries,
		logger:  logger,
		ops:     make(map[domain.ErpOperation]*query.Mutation[string, *domain.ErpSyncResult]),
	}
	for _, op := range []domain.ErpOperation{domain.ErpPush, domain.ErpPull, domain.ErpSync} {
		op := op
		s.ops[op] = query.NewMutation(queries, "erp."+string(op),
			func(ctx context.Context, system string) (*domain.ErpSyncResult, error) {
				return api.Run(ctx, op, system)
			},
			RootErp, RootInvoices,
		)
	}
	return s
}

// Adapters lists the configured ERP adapters.
func (s *ErpService) Adapters(ctx context.Context) query.State[[]domain.ErpAdapter] {
	ctx, span := tracer.Start(ctx, "ErpService.Adapters")
	defer span.End()

	return query.Fetch(ctx, s.queries, query.NewKey(RootErp, "adapters"), s.api.ListAdapters)
}

// Push sends local invoices to the ERP system.
func (s *ErpService) Push(ctx context.Context, system string) (*domain.ErpSyncResult, error) {
	return s.Run(ctx, domain.ErpPush, system)
}

// Pull imports invoices from the ERP system.
func (s *ErpService) Pull(ctx context.Context, system string) (*domain.ErpSyncResult, error) {
	return s.Run(ctx, domain.ErpPull, system)
}

// Sync runs a two-way sync with the ERP system.
func (s *ErpService) Sync(ctx context.Context, system string) (*domain.ErpSyncResult, error) {
	return s.Run(ctx, domain.ErpSync, system)
}

// Run dispatches op on system.
func (s *ErpService) Run(ctx context.Context, op domain.ErpOperation, system string) (*domain.ErpSyncResult, error) {
	ctx, span := tracer.Start(ctx, "ErpService."+string(op))
	defer span.End()

	system = strings.TrimSpace(system)
	if system == "" {
		return nil, &domain.ErrValidation{Field: "system", Message: "ERP system is required"}
	}
	m, ok := s.ops[op]
	if !ok {
		return nil, &domain.ErrValidation{Field: "operation", Message: "unknown ERP operation " + string(op)}
	}

	res, err := m.Mutate(ctx, system)
	if err != nil {
		return nil, err
	}
	s.logger.Info("erp operation finished",
		zap.String("operation", string(op)),
		zap.String("system", system),
		zap.Bool("success", res != nil && res.Success),
	)
	return res, nil
}

// Pending reports whether op is running.
func (s *ErpService) Pending(op domain.ErpOperation) bool {
	m, ok := s.ops[op]
	return ok && m.IsPending()
}
