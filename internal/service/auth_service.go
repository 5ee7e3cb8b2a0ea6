package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/port"
	"github.com/uplug/einvoice-bfa-go/internal/query"
	"github.com/uplug/einvoice-bfa-go/internal/session"
	"github.com/uplug/einvoice-bfa-go/internal/validation"
)

// AuthService drives the login, registration and password-reset forms.
type AuthService struct {
	api      port.AuthAPI
	session  *session.Store
	queries  *query.Client
	validate *validation.Validator
	logger   *zap.Logger

	login    *query.Mutation[domain.LoginRequest, domain.Session]
	register *query.Mutation[domain.CreateAccountRequest, *domain.AccountLogin]
	setup    *query.Mutation[string, struct{}]
	forgot   *query.Mutation[string, *domain.MessageResponse]
	reset    *query.Mutation[domain.PasswordResetConfirm, *domain.MessageResponse]
}

// NewAuthService creates the auth service.
func NewAuthService(api port.AuthAPI, store *session.Store, queries *query.Client, v *validation.Validator, logger *zap.Logger) *AuthService {
	s := &AuthService{
		api:      api,
		session:  store,
		queries:  queries,
		validate: v,
		logger:   logger,
	}

	s.login = query.NewMutation(queries, "auth.login", s.doLogin)
	s.register = query.NewMutation(queries, "auth.register", func(ctx context.Context, req domain.CreateAccountRequest) (*domain.AccountLogin, error) {
		return api.Register(ctx, &req)
	})
	s.setup = query.NewMutation(queries, "auth.initiateSetup", func(ctx context.Context, email string) (struct{}, error) {
		return struct{}{}, api.InitiateSetup(ctx, email)
	})
	s.forgot = query.NewMutation(queries, "auth.requestPasswordReset", api.RequestPasswordReset)
	s.reset = query.NewMutation(queries, "auth.resetPassword", func(ctx context.Context, req domain.PasswordResetConfirm) (*domain.MessageResponse, error) {
		return api.ResetPassword(ctx, req.Token, req.NewPassword)
	})
	return s
}

// Login authenticates and replaces the session. The operator counts as
// onboarded exactly when the backend returned a business profile.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req := domain.LoginRequest{Email: email, Password: password}
	if err := s.validate.Struct(req); err != nil {
		return domain.Session{}, err
	}
	return s.login.Mutate(ctx, req)
}

func (s *AuthService) doLogin(ctx context.Context, req domain.LoginRequest) (domain.Session, error) {
	res, err := s.api.Login(ctx, &req)
	if err != nil {
		return domain.Session{}, err
	}
	if res == nil || res.Token == "" {
		return domain.Session{}, &domain.ErrMalformedResponse{Endpoint: "login", Err: errMissingToken}
	}

	email := res.Email
	if email == "" {
		email = req.Email
	}
	onboarded := res.BusinessProfile != nil

	// a new identity must not see the previous one's cached data
	s.queries.Clear()
	if err := s.session.SetAuth(ctx, res.Token, domain.UserFromEmail(email), onboarded, res.BusinessProfile); err != nil {
		s.logger.Warn("session not persisted after login", zap.Error(err))
	}

	s.logger.Info("signed in", zap.String("email", email), zap.Bool("onboarded", onboarded))
	return s.session.Snapshot(), nil
}

// InitiateSetup starts registration by emailing an OTP.
func (s *AuthService) InitiateSetup(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "AuthService.InitiateSetup")
	defer span.End()

	if err := s.validate.Struct(domain.InitiateSetupRequest{Email: email}); err != nil {
		return err
	}
	_, err := s.setup.Mutate(ctx, email)
	return err
}

// Register completes registration. The session is left untouched: the
// operator signs in afterwards.
func (s *AuthService) Register(ctx context.Context, req domain.CreateAccountRequest) (*domain.AccountLogin, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if req.EntityRole == "" {
		req.EntityRole = domain.RoleBusiness
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	return s.register.Mutate(ctx, req)
}

// Logout revokes the token on the backend when possible and always clears
// the local session.
func (s *AuthService) Logout(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if s.session.Token() != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("backend logout failed, clearing local session anyway", zap.Error(err))
		}
	}
	return s.session.Logout(ctx)
}

// RequestPasswordReset asks for a reset link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.MessageResponse, error) {
	ctx, span := tracer.Start(ctx, "AuthService.RequestPasswordReset")
	defer span.End()

	if err := s.validate.Struct(domain.PasswordResetRequest{Email: email}); err != nil {
		return nil, err
	}
	return s.forgot.Mutate(ctx, email)
}

// ResetPassword sets a new password. A missing token or a confirmation
// mismatch is rejected before any request is sent.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) (*domain.MessageResponse, error) {
	ctx, span := tracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	req := domain.PasswordResetConfirm{Token: token, NewPassword: password, ConfirmPassword: confirm}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	return s.reset.Mutate(ctx, req)
}

// Session returns the current session.
func (s *AuthService) Session() domain.Session {
	return s.session.Snapshot()
}

// LoginPending reports whether a login is in flight.
func (s *AuthService) LoginPending() bool {
	return s.login.IsPending()
}
