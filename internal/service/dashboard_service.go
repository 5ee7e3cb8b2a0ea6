package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// DashboardService assembles the main dashboard.
type DashboardService struct {
	invoices *InvoiceService
	business *BusinessService
	logger   *zap.Logger
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(invoices *InvoiceService, business *BusinessService, logger *zap.Logger) *DashboardService {
	return &DashboardService{invoices: invoices, business: business, logger: logger}
}

// Load fetches stats and profile concurrently. Stats are required; a profile
// the backend does not have (404) leaves Profile nil, any other profile
// failure fails the dashboard.
func (s *DashboardService) Load(ctx context.Context) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.Load")
	defer span.End()

	var out domain.Dashboard

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		st := s.invoices.DashboardStats(gctx)
		if st.Err != nil {
			return st.Err
		}
		out.Stats = st.Data
		return nil
	})

	g.Go(func() error {
		st := s.business.Profile(gctx)
		if domain.IsNotFound(st.Err) {
			s.logger.Debug("dashboard rendered without profile", zap.Error(st.Err))
			return nil
		}
		if st.Err != nil {
			return st.Err
		}
		out.Profile = st.Data
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
