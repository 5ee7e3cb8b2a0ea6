// Package onboarding implements the three-step business setup wizard as an
// explicit state machine: Tax Identity, Business Profile, Preferences, then
// the terminal Complete state.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/validation"
)

// Step is a wizard state.
type Step int

const (
	StepTaxIdentity Step = iota + 1
	StepBusinessProfile
	StepPreferences
	StepComplete
)

// order is the transition table. Next moves one entry forward, Back one
// entry back; no other transition exists.
var order = []Step{StepTaxIdentity, StepBusinessProfile, StepPreferences, StepComplete}

var stepInfo = map[Step]struct {
	name, title, description string
	fields                   []string
}{
	StepTaxIdentity:     {"tax_identity", "Tax Identity", "Verify your business TIN", []string{"TINRequestID"}},
	StepBusinessProfile: {"business_profile", "Business Profile", "Industry and ERP details", []string{"IndustryClassification", "ErpSolution", "AggregateTurnover"}},
	StepPreferences:     {"preferences", "Preferences", "Reporting and Notifications", []string{"ReportingMethods", "NotificationPreferences", "PreferredInvoiceExchangeFramework"}},
	StepComplete:        {"complete", "Complete", "Your business is ready for e-invoicing", nil},
}

func (s Step) String() string {
	if info, ok := stepInfo[s]; ok {
		return info.name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Title is the heading shown for the step.
func (s Step) Title() string { return stepInfo[s].title }

// Description is the subheading shown for the step.
func (s Step) Description() string { return stepInfo[s].description }

// Number is the 1-based position in the wizard.
func (s Step) Number() int { return int(s) }

// ParseStep accepts a step name or number.
func ParseStep(v string) (Step, bool) {
	for _, s := range order {
		if v == s.String() || v == fmt.Sprint(int(s)) {
			return s, true
		}
	}
	return 0, false
}

func (s Step) index() int {
	for i, o := range order {
		if o == s {
			return i
		}
	}
	return -1
}

// Steps lists the wizard states in order.
func Steps() []Step {
	return append([]Step(nil), order...)
}

// Business is what the wizard needs from the business service.
type Business interface {
	VerifyTIN(ctx context.Context, tin string) (*domain.TINRecord, error)
	CreateProfile(ctx context.Context, req domain.CreateBusinessProfileRequest) (*domain.BusinessProfile, error)
}

// SessionWriter flips the onboarded flag of the sign-in identified by epoch.
type SessionWriter interface {
	Epoch() uint64
	SetOnboardedAt(ctx context.Context, epoch uint64, onboarded bool) error
}

// Options tunes wizard behaviour.
type Options struct {
	// AutoAdvance moves to the business profile step as soon as the TIN is
	// verified.
	AutoAdvance bool
}

// State is a snapshot of the wizard for rendering.
type State struct {
	Step        Step                                `json:"-"`
	StepName    string                              `json:"step"`
	StepNumber  int                                 `json:"stepNumber"`
	Title       string                              `json:"title"`
	Description string                              `json:"description"`
	TIN         string                              `json:"tin,omitempty"`
	TINRecord   *domain.TINRecord                   `json:"tinRecord,omitempty"`
	Profile     domain.CreateBusinessProfileRequest `json:"profile"`
	LastError   string                              `json:"error,omitempty"`
	Pending     bool                                `json:"pending"`
	Completed   bool                                `json:"completed"`
}

// ErrWrongStep is returned for actions that do not belong to the current step.
var ErrWrongStep = errors.New("action not allowed at this step")

// Wizard is safe for concurrent use. Network calls run without the lock
// held; a second call while one is in flight gets domain.ErrMutationPending.
// A result that comes back after Reset (or after the session changed) is
// dropped with domain.ErrSessionChanged.
type Wizard struct {
	business Business
	session  SessionWriter
	validate *validation.Validator
	opts     Options
	logger   *zap.Logger

	mu        sync.Mutex
	step      Step
	tin       string
	tinRecord *domain.TINRecord
	profile   domain.CreateBusinessProfileRequest
	lastError string
	pending   bool
	epoch     uint64
}

// New creates a wizard at the first step with the default selections.
func New(business Business, session SessionWriter, v *validation.Validator, opts Options, logger *zap.Logger) *Wizard {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Wizard{
		business: business,
		session:  session,
		validate: v,
		opts:     opts,
		logger:   logger,
	}
	w.reset()
	return w
}

func (w *Wizard) reset() {
	w.epoch++
	w.step = StepTaxIdentity
	w.tin = ""
	w.tinRecord = nil
	w.lastError = ""
	w.pending = false
	w.profile = domain.CreateBusinessProfileRequest{
		IndustryClassification: domain.IndustryRetail,
		ErpSolution:            domain.ErpOther,
		ReportingMethods:       domain.ReportingRealTime,
	}
}

// Reset starts over.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reset()
}

// State returns a snapshot.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	var rec *domain.TINRecord
	if w.tinRecord != nil {
		r := *w.tinRecord
		rec = &r
	}
	return State{
		Step:        w.step,
		StepName:    w.step.String(),
		StepNumber:  w.step.Number(),
		Title:       w.step.Title(),
		Description: w.step.Description(),
		TIN:         w.tin,
		TINRecord:   rec,
		Profile:     w.profile,
		LastError:   w.lastError,
		Pending:     w.pending,
		Completed:   w.step == StepComplete,
	}
}

// VerifyTIN verifies tin and records the result. With AutoAdvance the wizard
// moves on to the business profile step.
func (w *Wizard) VerifyTIN(ctx context.Context, tin string) error {
	tin = strings.TrimSpace(tin)
	epoch, err := w.begin(StepTaxIdentity)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.tin = tin
	w.mu.Unlock()

	rec, err := w.business.VerifyTIN(ctx, tin)
	if err == nil && rec != nil && rec.Status == domain.TINFailed {
		err = &domain.ErrValidation{Field: "tin", Message: "TIN verification failed"}
	}
	if err == nil && (rec == nil || rec.ID == "") {
		err = &domain.ErrMalformedResponse{Endpoint: "tin verification", Err: errors.New("missing verification id")}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		return domain.ErrSessionChanged
	}
	w.pending = false
	if err != nil {
		w.lastError = errorMessage(err, "TIN verification failed")
		return err
	}

	w.tinRecord = rec
	w.profile.TINRequestID = rec.ID
	w.lastError = ""
	if w.opts.AutoAdvance {
		w.advance()
	}
	return nil
}

// SetBusinessDetails updates the business profile step fields.
func (w *Wizard) SetBusinessDetails(industry domain.IndustryClassification, erp domain.ErpSolution, turnover *float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.profile.IndustryClassification = industry
	w.profile.ErpSolution = erp
	w.profile.AggregateTurnover = turnover
}

// SetPreferences updates the preferences step fields.
func (w *Wizard) SetPreferences(reporting domain.ReportingMethod, notifications domain.NotificationPreference, framework domain.ExchangeFramework) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.profile.ReportingMethods = reporting
	w.profile.NotificationPreferences = notifications
	w.profile.PreferredInvoiceExchangeFramework = framework
}

// Next advances when the current step's fields validate. On failure the step
// and all entered data stay as they were.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return domain.ErrMutationPending
	}
	if w.step == StepPreferences || w.step == StepComplete {
		return ErrWrongStep
	}
	if err := w.validateStep(w.step); err != nil {
		w.lastError = errorMessage(err, "please complete the required fields")
		return err
	}
	w.lastError = ""
	w.advance()
	return nil
}

// Back returns to the previous step. Entered data is kept.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return domain.ErrMutationPending
	}
	i := w.step.index()
	if i <= 0 || w.step == StepComplete {
		return ErrWrongStep
	}
	w.step = order[i-1]
	w.lastError = ""
	return nil
}

// Submit creates the business profile from the last step. Success marks the
// session onboarded and completes the wizard; failure keeps the wizard on
// the last step with LastError set and leaves the session untouched.
func (w *Wizard) Submit(ctx context.Context) (*domain.BusinessProfile, error) {
	sessionEpoch := w.session.Epoch()
	epoch, err := w.begin(StepPreferences)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	req := w.profile
	var verr error
	for _, s := range order[:StepComplete.index()] {
		if verr = w.validateStep(s); verr != nil {
			break
		}
	}
	if verr != nil {
		w.pending = false
		w.lastError = errorMessage(verr, "please complete the required fields")
		w.mu.Unlock()
		return nil, verr
	}
	w.mu.Unlock()

	profile, err := w.business.CreateProfile(ctx, req)
	if err == nil && profile == nil {
		err = &domain.ErrMalformedResponse{Endpoint: "business profile", Err: errors.New("empty profile")}
	}
	if err == nil {
		if serr := w.session.SetOnboardedAt(ctx, sessionEpoch, true); errors.Is(serr, domain.ErrSessionChanged) {
			err = serr
		} else if serr != nil {
			w.logger.Warn("onboarded flag not persisted", zap.Error(serr))
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		w.logger.Info("dropping onboarding result after reset")
		return nil, domain.ErrSessionChanged
	}
	w.pending = false
	if err != nil {
		w.lastError = errorMessage(err, "Failed to create business profile")
		return nil, err
	}
	w.lastError = ""
	w.advance()
	w.logger.Info("onboarding complete", zap.String("business_id", profile.ID))
	return profile, nil
}

// begin marks a network action in flight if the wizard is at step and
// returns the epoch the result must still match.
func (w *Wizard) begin(step Step) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return 0, domain.ErrMutationPending
	}
	if w.step != step {
		return 0, ErrWrongStep
	}
	w.pending = true
	w.lastError = ""
	return w.epoch, nil
}

func (w *Wizard) advance() {
	if i := w.step.index(); i >= 0 && i < len(order)-1 {
		w.step = order[i+1]
	}
}

func (w *Wizard) validateStep(s Step) error {
	fields := stepInfo[s].fields
	if len(fields) == 0 {
		return nil
	}
	return w.validate.Fields(w.profile, fields...)
}

func errorMessage(err error, fallback string) string {
	var ve *domain.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve.Fields))
		for _, f := range sortedKeys(ve.Fields) {
			msgs = append(msgs, ve.Fields[f])
		}
		return strings.Join(msgs, "; ")
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
