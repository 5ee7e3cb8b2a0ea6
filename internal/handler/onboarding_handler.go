package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
	"github.com/uplug/einvoice-bfa-go/internal/onboarding"
)

// ============================================================
// Onboarding wizard
// ============================================================

type tinRequest struct {
	TIN string `json:"tin"`
}

type businessDetailsRequest struct {
	IndustryClassification domain.IndustryClassification `json:"industryClassification"`
	ErpSolution            domain.ErpSolution            `json:"erpSolution"`
	AggregateTurnover      *float64                      `json:"aggregateTurnover"`
}

type preferencesRequest struct {
	ReportingMethods                  domain.ReportingMethod        `json:"reportingMethods"`
	NotificationPreferences           domain.NotificationPreference `json:"notificationPreferences"`
	PreferredInvoiceExchangeFramework domain.ExchangeFramework      `json:"preferredInvoiceExchangeFramework"`
}

type submitResponse struct {
	Profile    *domain.BusinessProfile `json:"profile"`
	State      onboarding.State        `json:"state"`
	RedirectTo string                  `json:"redirectTo"`
}

func onboardingStateHandler(wz *onboarding.Wizard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, wz.State())
	}
}

func onboardingVerifyTINHandler(wz *onboarding.Wizard, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/tin")
		defer span.End()

		var req tinRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := wz.VerifyTIN(ctx, req.TIN); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, wz.State())
	}
}

func onboardingBusinessHandler(wz *onboarding.Wizard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req businessDetailsRequest
		if !decodeBody(w, r, &req) {
			return
		}
		wz.SetBusinessDetails(req.IndustryClassification, req.ErpSolution, req.AggregateTurnover)
		writeJSON(w, http.StatusOK, wz.State())
	}
}

func onboardingPreferencesHandler(wz *onboarding.Wizard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req preferencesRequest
		if !decodeBody(w, r, &req) {
			return
		}
		wz.SetPreferences(req.ReportingMethods, req.NotificationPreferences, req.PreferredInvoiceExchangeFramework)
		writeJSON(w, http.StatusOK, wz.State())
	}
}

func onboardingNextHandler(wz *onboarding.Wizard, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := wz.Next(); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, wz.State())
	}
}

func onboardingBackHandler(wz *onboarding.Wizard, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := wz.Back(); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, wz.State())
	}
}

func onboardingSubmitHandler(wz *onboarding.Wizard, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/onboarding/submit")
		defer span.End()

		profile, err := wz.Submit(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, submitResponse{
			Profile:    profile,
			State:      wz.State(),
			RedirectTo: guard.PathHome,
		})
	}
}
