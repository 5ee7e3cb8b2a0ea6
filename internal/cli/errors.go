package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
	"github.com/uplug/einvoice-bfa-go/internal/onboarding"
)

// Exit codes.
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitUsageError = 2
	ExitAuthError  = 3
	ExitBackend    = 4
	ExitTimeout    = 5
)

// CLIError is a structured error with user-facing context.
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
}

func (e *CLIError) Error() string {
	return e.Summary
}

// FormatError prints a structured error message to stderr.
func (p *Printer) FormatError(e *CLIError) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", e.Summary)
		if e.Detail != "" {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			color.New(color.FgCyan).Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
		return
	}
	fmt.Fprintf(p.err, "[ERROR] %s\n", e.Summary)
	if e.Detail != "" {
		fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
	}
}

// Describe turns any command error into a CLIError.
func Describe(err error) *CLIError {
	var ce *CLIError
	if errors.As(err, &ce) {
		return ce
	}

	var (
		ve    *domain.ValidationErrors
		fe    *domain.ErrValidation
		re    *domain.RequestError
		ue    *domain.ErrUnauthorized
		nf    *domain.ErrNotFound
		co    *domain.ErrCircuitOpen
		mr    *domain.ErrMalformedResponse
		ext   *domain.ErrExternalService
		redir *domain.ErrRedirect
	)
	switch {
	case errors.As(err, &ve):
		fields := make([]string, 0, len(ve.Fields))
		keys := make([]string, 0, len(ve.Fields))
		for k := range ve.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, k+": "+ve.Fields[k])
		}
		return &CLIError{Summary: "invalid input", Detail: strings.Join(fields, "; "), ExitCode: ExitUsageError}
	case errors.As(err, &fe):
		return &CLIError{Summary: "invalid input", Detail: fe.Error(), ExitCode: ExitUsageError}
	case errors.As(err, &redir):
		return redirectError(redir.To)
	case errors.As(err, &ue):
		return &CLIError{Summary: "sign in required", Detail: ue.Error(), Suggestion: "run 'einvoicectl login'", ExitCode: ExitAuthError}
	case errors.As(err, &nf):
		return &CLIError{Summary: nf.Error(), ExitCode: ExitGeneral}
	case errors.As(err, &re):
		if re.Status == http.StatusUnauthorized {
			return &CLIError{Summary: re.Error(), Suggestion: "run 'einvoicectl login' to start a new session", ExitCode: ExitAuthError}
		}
		if re.Status == http.StatusNotFound {
			return &CLIError{Summary: re.Error(), ExitCode: ExitGeneral}
		}
		return &CLIError{Summary: re.Error(), ExitCode: ExitBackend}
	case errors.As(err, &co):
		return &CLIError{Summary: "backend unavailable", Detail: co.Error(), Suggestion: "wait a few seconds and retry", ExitCode: ExitBackend}
	case errors.As(err, &mr):
		e := &CLIError{Summary: mr.Error(), ExitCode: ExitBackend}
		if mr.Err != nil {
			e.Detail = mr.Err.Error()
		}
		return e
	case errors.Is(err, context.DeadlineExceeded):
		return &CLIError{Summary: "request timed out", Suggestion: "increase HTTP_TIMEOUT or retry", ExitCode: ExitTimeout}
	case errors.As(err, &ext):
		return &CLIError{Summary: "cannot reach the backend", Detail: ext.Err.Error(), Suggestion: "check API_BASE_URL", ExitCode: ExitBackend}
	case errors.Is(err, domain.ErrMutationPending):
		return &CLIError{Summary: err.Error(), ExitCode: ExitGeneral}
	case errors.Is(err, domain.ErrSessionChanged):
		return &CLIError{Summary: err.Error(), Suggestion: "run 'einvoicectl status'", ExitCode: ExitGeneral}
	case errors.Is(err, onboarding.ErrWrongStep):
		return &CLIError{Summary: err.Error(), Suggestion: "run 'einvoicectl status'", ExitCode: ExitUsageError}
	default:
		return &CLIError{Summary: err.Error(), ExitCode: ExitGeneral}
	}
}

func redirectError(to string) *CLIError {
	switch to {
	case guard.PathLogin:
		return &CLIError{Summary: "sign in required", Suggestion: "run 'einvoicectl login'", ExitCode: ExitAuthError}
	case guard.PathOnboarding:
		return &CLIError{Summary: "business setup is not complete", Suggestion: "run 'einvoicectl onboard'", ExitCode: ExitAuthError}
	case guard.PathHome:
		return &CLIError{Summary: "business setup is already complete", Suggestion: "run 'einvoicectl dashboard'", ExitCode: ExitUsageError}
	default:
		return &CLIError{Summary: "redirected to " + to, ExitCode: ExitGeneral}
	}
}
