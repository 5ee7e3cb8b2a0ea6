// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// TokenSource yields the bearer token attached to backend calls.
// An empty string means no Authorization header.
type TokenSource interface {
	Token() string
}

// SessionPersister stores the four persisted session fields between runs.
// Load returns (nil, nil) when nothing has been stored yet.
type SessionPersister interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, s domain.Session) error
}

// Cache provides generic caching with TTL and prefix invalidation.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	SetWithTTL(key string, value T, ttl time.Duration)
	Delete(key string)
	DeletePrefix(prefix string) int
	Clear()
}

// AuthAPI covers the account endpoints.
type AuthAPI interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AccountLogin, error)
	Register(ctx context.Context, req *domain.CreateAccountRequest) (*domain.AccountLogin, error)
	InitiateSetup(ctx context.Context, email string) error
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) (*domain.MessageResponse, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*domain.MessageResponse, error)
}

// BusinessAPI covers TIN verification and the business profile.
type BusinessAPI interface {
	VerifyTIN(ctx context.Context, tin string) (*domain.TINRecord, error)
	CreateProfile(ctx context.Context, req *domain.CreateBusinessProfileRequest) (*domain.BusinessProfile, error)
	GetProfile(ctx context.Context) (*domain.BusinessProfile, error)
	GetAPIKeys(ctx context.Context, businessID string) (*domain.APIKeys, error)
}

// InvoiceAPI covers invoice listing and dashboard stats.
type InvoiceAPI interface {
	ListInvoices(ctx context.Context, filters domain.InvoiceFilters) ([]domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}

// ErpAPI covers the ERP adapters.
type ErpAPI interface {
	ListAdapters(ctx context.Context) ([]domain.ErpAdapter, error)
	Run(ctx context.Context, op domain.ErpOperation, system string) (*domain.ErpSyncResult, error)
}

// EInvoiceAPI covers the e-invoice action endpoints.
type EInvoiceAPI interface {
	ListActions(ctx context.Context, actionType domain.ActionType) ([]domain.EInvoiceActionRecord, error)
	Validate(ctx context.Context, req *domain.ValidateRequest) (*domain.EInvoiceActionRecord, error)
	Report(ctx context.Context, payload map[string]any) (*domain.EInvoiceActionRecord, error)
	Sign(ctx context.Context, payload map[string]any) (*domain.InvoiceSigningRecord, error)
	ListTaxpayerLogins(ctx context.Context) ([]domain.TaxpayerAuthRecord, error)
	TaxpayerAuth(ctx context.Context, req *domain.TaxpayerAuthRequest) (*domain.TaxpayerAuthRecord, error)
	Download(ctx context.Context, irn string) (*domain.EInvoiceActionRecord, error)
}
