package domain

// ============================================================
// Auth: request / response types (backend contract)
// ============================================================

type EntityRole string

const (
	RoleBusiness         EntityRole = "BUSINESS"
	RoleSystemIntegrator EntityRole = "SYSTEM_INTEGRATOR"
	RoleAdmin            EntityRole = "ADMIN"
)

// LoginRequest is the JSON body for login. Credentials never travel in the query string.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AccountLogin is returned by login and register.
type AccountLogin struct {
	Email           string           `json:"email"`
	Token           string           `json:"token"`
	AccessOptions   []string         `json:"accessOptions,omitempty"`
	BusinessProfile *BusinessProfile `json:"businessProfile,omitempty"`
}

// InitiateSetupRequest sends the email OTP that starts registration.
type InitiateSetupRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateAccountRequest completes registration with the OTP.
type CreateAccountRequest struct {
	Email      string     `json:"email" validate:"required,email"`
	Password   string     `json:"password" validate:"required,min=8"`
	OTP        string     `json:"otp" validate:"required,numeric,min=4,max=8"`
	EntityRole EntityRole `json:"entityRole" validate:"required,oneof=BUSINESS SYSTEM_INTEGRATOR ADMIN"`
}

// PasswordResetRequest asks for a reset link.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirm sets a new password with the token from the reset link.
// Confirmation is checked client-side and never sent.
type PasswordResetConfirm struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"-" validate:"required,eqfield=NewPassword"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
