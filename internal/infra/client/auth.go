package client

import (
	"context"
	"net/http"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// Login exchanges credentials for a token. Credentials travel only in the body.
func (c *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AccountLogin, error) {
	ctx, span := tracer.Start(ctx, "Client.Login")
	defer span.End()

	return Do[*domain.AccountLogin](ctx, c, c.endpoints.Login, Request{Method: http.MethodPost, Body: req})
}

// Register completes account creation with the emailed OTP.
func (c *Client) Register(ctx context.Context, req *domain.CreateAccountRequest) (*domain.AccountLogin, error) {
	ctx, span := tracer.Start(ctx, "Client.Register")
	defer span.End()

	return Do[*domain.AccountLogin](ctx, c, c.endpoints.Register, Request{Method: http.MethodPost, Body: req})
}

// InitiateSetup asks the backend to email a registration OTP.
func (c *Client) InitiateSetup(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "Client.InitiateSetup")
	defer span.End()

	_, err := c.Call(ctx, c.endpoints.EmailVerification, Request{
		Method: http.MethodPost,
		Body:   domain.InitiateSetupRequest{Email: email},
	})
	return err
}

// Logout revokes the token on the backend.
func (c *Client) Logout(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Client.Logout")
	defer span.End()

	_, err := c.Call(ctx, c.endpoints.Logout, Request{Method: http.MethodPost})
	return err
}

// RequestPasswordReset asks for a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*domain.MessageResponse, error) {
	ctx, span := tracer.Start(ctx, "Client.RequestPasswordReset")
	defer span.End()

	return c.message(ctx, c.endpoints.PasswordReset, domain.PasswordResetRequest{Email: email})
}

// ResetPassword sets a new password using the token from the reset link.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*domain.MessageResponse, error) {
	ctx, span := tracer.Start(ctx, "Client.ResetPassword")
	defer span.End()

	return c.message(ctx, c.endpoints.PasswordResetDone, domain.PasswordResetConfirm{
		Token:       token,
		NewPassword: newPassword,
	})
}

// message posts body and accepts either a JSON acknowledgement or plain text.
func (c *Client) message(ctx context.Context, endpoint string, body any) (*domain.MessageResponse, error) {
	resp, err := c.Call(ctx, endpoint, Request{Method: http.MethodPost, Body: body})
	if err != nil {
		return nil, err
	}
	if !resp.IsJSON() {
		return &domain.MessageResponse{Message: resp.Text}, nil
	}
	out, err := decode[domain.MessageResponse](endpoint, resp)
	if err != nil {
		// Some deployments answer with a bare JSON string.
		s, serr := decode[string](endpoint, resp)
		if serr != nil {
			return nil, err
		}
		return &domain.MessageResponse{Message: s}, nil
	}
	return &out, nil
}
