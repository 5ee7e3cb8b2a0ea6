package client

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// VerifyTIN checks a TIN against the tax registry.
func (c *Client) VerifyTIN(ctx context.Context, tin string) (*domain.TINRecord, error) {
	ctx, span := tracer.Start(ctx, "Client.VerifyTIN")
	defer span.End()

	return Do[*domain.TINRecord](ctx, c, c.endpoints.TINVerification, Request{
		Method: http.MethodPost,
		Body:   domain.TINVerificationRequest{TIN: tin},
	})
}

// CreateProfile submits the onboarding profile.
func (c *Client) CreateProfile(ctx context.Context, req *domain.CreateBusinessProfileRequest) (*domain.BusinessProfile, error) {
	ctx, span := tracer.Start(ctx, "Client.CreateProfile")
	defer span.End()

	return Do[*domain.BusinessProfile](ctx, c, c.endpoints.BusinessProfile, Request{Method: http.MethodPost, Body: req})
}

// GetProfile fetches the caller's business profile. A business that has not
// onboarded yet gets a 404 RequestError.
func (c *Client) GetProfile(ctx context.Context) (*domain.BusinessProfile, error) {
	ctx, span := tracer.Start(ctx, "Client.GetProfile")
	defer span.End()

	return Do[*domain.BusinessProfile](ctx, c, c.endpoints.BusinessProfile, Request{})
}

// GetAPIKeys fetches the integration keys of a business.
func (c *Client) GetAPIKeys(ctx context.Context, businessID string) (*domain.APIKeys, error) {
	ctx, span := tracer.Start(ctx, "Client.GetAPIKeys")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	return Do[*domain.APIKeys](ctx, c, path(c.endpoints.APIKeys, businessID), Request{})
}
