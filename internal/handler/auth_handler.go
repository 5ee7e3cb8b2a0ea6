package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
	"github.com/uplug/einvoice-bfa-go/internal/service"
	"github.com/uplug/einvoice-bfa-go/internal/session"
)

// ============================================================
// Auth
// ============================================================

type loginResponse struct {
	Session    sessionView `json:"session"`
	RedirectTo string      `json:"redirectTo"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func authLoginHandler(authSvc *service.AuthService, sess *session.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		s, err := authSvc.Login(ctx, req.Email, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			Session:    newSessionView(sess),
			RedirectTo: guard.Landing(s),
		})
	}
}

func authSetupHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/setup")
		defer span.End()

		var req emailRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := authSvc.InitiateSetup(ctx, req.Email); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusAccepted, domain.SuccessResponse{Message: "verification code sent"})
	}
}

func authRegisterHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/register")
		defer span.End()

		var req domain.CreateAccountRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if _, err := authSvc.Register(ctx, req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		// the account token is not kept: the operator signs in next
		writeJSON(w, http.StatusCreated, loginResponse{
			Session:    sessionView{Landing: guard.PathLogin},
			RedirectTo: guard.PathLogin,
		})
	}
}

func authLogoutHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		if err := authSvc.Logout(ctx); err != nil {
			// the in-memory session is already cleared
			logger.Warn("logout not persisted", zap.Error(err))
		}

		writeJSON(w, http.StatusOK, map[string]string{"redirectTo": guard.PathLogin})
	}
}

func authForgotPasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/password/forgot")
		defer span.End()

		var req emailRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := authSvc.RequestPasswordReset(ctx, req.Email)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func authResetPasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/password/reset")
		defer span.End()

		var req resetPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := authSvc.ResetPassword(ctx, req.Token, req.NewPassword, req.ConfirmPassword)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
