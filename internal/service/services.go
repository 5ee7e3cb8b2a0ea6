package service

import (
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/port"
	"github.com/uplug/einvoice-bfa-go/internal/query"
	"github.com/uplug/einvoice-bfa-go/internal/session"
	"github.com/uplug/einvoice-bfa-go/internal/validation"
)

var tracer = otel.Tracer("service")

// Resource roots of the query cache. A mutation invalidates whole roots.
const (
	RootBusiness = "business"
	RootInvoices = "invoices"
	RootErp      = "erp"
	RootEInvoice = "einvoice"
)

// API is everything the services need from the backend client.
type API interface {
	port.AuthAPI
	port.BusinessAPI
	port.InvoiceAPI
	port.ErpAPI
	port.EInvoiceAPI
}

// Services bundles the per-resource services over one session and one cache.
type Services struct {
	Auth      *AuthService
	Business  *BusinessService
	Invoices  *InvoiceService
	Erp       *ErpService
	EInvoice  *EInvoiceService
	Dashboard *DashboardService
}

// New wires every service. Logging out clears the query cache so nothing
// fetched under one identity is served to the next.
func New(api API, store *session.Store, queries *query.Client, v *validation.Validator, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	store.OnLogout(queries.Clear)

	business := NewBusinessService(api, store, queries, v, logger)
	invoices := NewInvoiceService(api, queries, v, logger)

	return &Services{
		Auth:      NewAuthService(api, store, queries, v, logger),
		Business:  business,
		Invoices:  invoices,
		Erp:       NewErpService(api, queries, logger),
		EInvoice:  NewEInvoiceService(api, queries, v, logger),
		Dashboard: NewDashboardService(invoices, business, logger),
	}
}
