package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/port"
	"github.com/uplug/einvoice-bfa-go/internal/query"
	"github.com/uplug/einvoice-bfa-go/internal/session"
	"github.com/uplug/einvoice-bfa-go/internal/validation"
)

// BusinessService covers TIN verification, the business profile and API keys.
type BusinessService struct {
	api      port.BusinessAPI
	session  *session.Store
	queries  *query.Client
	validate *validation.Validator
	logger   *zap.Logger

	verifyTIN     *query.Mutation[string, *domain.TINRecord]
	createProfile *query.Mutation[domain.CreateBusinessProfileRequest, *domain.BusinessProfile]
}

// NewBusinessService creates the business service.
func NewBusinessService(api port.BusinessAPI, store *session.Store, queries *query.Client, v *validation.Validator, logger *zap.Logger) *BusinessService {
	s := &BusinessService{
		api:      api,
		session:  store,
		queries:  queries,
		validate: v,
		logger:   logger,
	}
	s.verifyTIN = query.NewMutation(queries, "business.verifyTin", api.VerifyTIN)
	s.createProfile = query.NewMutation(queries, "business.createProfile",
		func(ctx context.Context, req domain.CreateBusinessProfileRequest) (*domain.BusinessProfile, error) {
			return api.CreateProfile(ctx, &req)
		},
		RootBusiness,
	)
	return s
}

// VerifyTIN checks a TIN with the registry.
func (s *BusinessService) VerifyTIN(ctx context.Context, tin string) (*domain.TINRecord, error) {
	ctx, span := tracer.Start(ctx, "BusinessService.VerifyTIN")
	defer span.End()

	tin = strings.TrimSpace(tin)
	if err := s.validate.Struct(domain.TINVerificationRequest{TIN: tin}); err != nil {
		return nil, err
	}
	return s.verifyTIN.Mutate(ctx, tin)
}

// CreateProfile submits the onboarding profile and invalidates the business
// root. The new profile is cached on the session; the onboarded flag is the
// caller's decision. If the session was logged out or replaced while the
// request was in flight the result is dropped with domain.ErrSessionChanged.
func (s *BusinessService) CreateProfile(ctx context.Context, req domain.CreateBusinessProfileRequest) (*domain.BusinessProfile, error) {
	ctx, span := tracer.Start(ctx, "BusinessService.CreateProfile")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	epoch := s.session.Epoch()
	profile, err := s.createProfile.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.session.SetBusinessProfileAt(ctx, epoch, profile); err != nil {
		if errors.Is(err, domain.ErrSessionChanged) {
			s.logger.Info("profile created for a session that has since ended")
			return nil, err
		}
		s.logger.Warn("profile not persisted in session", zap.Error(err))
	}
	return profile, nil
}

// CreatePending reports whether a profile submission is in flight.
func (s *BusinessService) CreatePending() bool {
	return s.createProfile.IsPending()
}

// Profile fetches the business profile. It is never retried; a 404 comes back
// as a terminal *domain.ErrNotFound and leaves the session alone.
func (s *BusinessService) Profile(ctx context.Context) query.State[*domain.BusinessProfile] {
	ctx, span := tracer.Start(ctx, "BusinessService.Profile")
	defer span.End()

	st := query.Fetch(ctx, s.queries, query.NewKey(RootBusiness, "profile"), s.api.GetProfile,
		query.Enabled(s.session.Token() != ""),
		query.Retry(0),
	)
	if st.Err != nil && domain.IsNotFound(st.Err) {
		st.Err = &domain.ErrNotFound{Resource: "business profile"}
	}
	return st
}

// APIKeys fetches the integration keys. Disabled until a business id is known.
func (s *BusinessService) APIKeys(ctx context.Context, businessID string) query.State[*domain.APIKeys] {
	ctx, span := tracer.Start(ctx, "BusinessService.APIKeys")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	return query.Fetch(ctx, s.queries, query.NewKey(RootBusiness, "apiKeys", businessID),
		func(ctx context.Context) (*domain.APIKeys, error) {
			return s.api.GetAPIKeys(ctx, businessID)
		},
		query.Enabled(businessID != ""),
	)
}
