package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uplug/einvoice-bfa-go/internal/app"
	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
	"github.com/uplug/einvoice-bfa-go/internal/onboarding"
)

type onboardFlags struct {
	tin       string
	industry  string
	erp       string
	turnover  float64
	reporting string
	notify    string
	framework string
}

func newOnboardCmd(g *globals) *cobra.Command {
	var f onboardFlags
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Set up the business profile",
		Long: `Run the three setup steps in one go: Tax Identity, Business Profile
and Preferences. Unset options keep their defaults.

Industries:  ` + joinValues(domain.Industries()) + `
ERP systems: ` + joinValues(domain.ErpSolutions()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaOnboarding, func(ctx context.Context, a *app.App, p *Printer) error {
				return runOnboarding(ctx, g, cmd, a.Wizard, p, f)
			})
		},
	}
	cmd.Flags().StringVar(&f.tin, "tin", "", "tax identification number")
	cmd.Flags().StringVar(&f.industry, "industry", "", "industry classification (default RETAIL)")
	cmd.Flags().StringVar(&f.erp, "erp", "", "ERP solution (default OTHER)")
	cmd.Flags().Float64Var(&f.turnover, "turnover", 0, "aggregate annual turnover")
	cmd.Flags().StringVar(&f.reporting, "reporting", "", "reporting method: REAL_TIME, BATCH or MANUAL_ENTRY (default REAL_TIME)")
	cmd.Flags().StringVar(&f.notify, "notify", "", "notification channel: SMS, EMAIL, PHONE or PUSH_NOTIFICATION")
	cmd.Flags().StringVar(&f.framework, "framework", "", "invoice exchange framework: JSON or XML")
	return cmd
}

func runOnboarding(ctx context.Context, g *globals, cmd *cobra.Command, w *onboarding.Wizard, p *Printer, f onboardFlags) error {
	fail := func(err error) error {
		if msg := w.State().LastError; msg != "" && !g.json {
			p.Error("%s", msg)
		}
		return err
	}
	step := func(s onboarding.Step) {
		if !g.json {
			p.Header(fmt.Sprintf("Step %d of %d: %s", s.Number(), len(onboarding.Steps())-1, s.Title()))
		}
	}

	// Tax Identity
	step(onboarding.StepTaxIdentity)
	if err := w.VerifyTIN(ctx, f.tin); err != nil {
		return fail(err)
	}
	st := w.State()
	if !g.json && st.TINRecord != nil {
		p.Success("TIN %s verified for %s", st.TINRecord.TIN, st.TINRecord.BusinessName)
	}
	if st.Step == onboarding.StepTaxIdentity {
		if err := w.Next(); err != nil {
			return fail(err)
		}
	}

	// Business Profile
	step(onboarding.StepBusinessProfile)
	prof := w.State().Profile
	industry, erp, turnover := prof.IndustryClassification, prof.ErpSolution, prof.AggregateTurnover
	if f.industry != "" {
		industry = domain.IndustryClassification(strings.ToUpper(f.industry))
	}
	if f.erp != "" {
		erp = domain.ErpSolution(strings.ToUpper(f.erp))
	}
	if cmd.Flags().Changed("turnover") {
		t := f.turnover
		turnover = &t
	}
	w.SetBusinessDetails(industry, erp, turnover)
	if err := w.Next(); err != nil {
		return fail(err)
	}
	if !g.json {
		p.Field("Industry", string(industry))
		p.Field("ERP", string(erp))
	}

	// Preferences
	step(onboarding.StepPreferences)
	prof = w.State().Profile
	reporting, notify, framework := prof.ReportingMethods, prof.NotificationPreferences, prof.PreferredInvoiceExchangeFramework
	if f.reporting != "" {
		reporting = domain.ReportingMethod(strings.ToUpper(f.reporting))
	}
	if f.notify != "" {
		notify = domain.NotificationPreference(strings.ToUpper(f.notify))
	}
	if f.framework != "" {
		framework = domain.ExchangeFramework(strings.ToUpper(f.framework))
	}
	w.SetPreferences(reporting, notify, framework)

	profile, err := w.Submit(ctx)
	if err != nil {
		return fail(err)
	}
	return g.emit(p, map[string]any{"profile": profile, "redirectTo": guard.PathHome}, func() error {
		p.Success("Business profile %s created", profile.ID)
		p.Hint("see your dashboard with 'einvoicectl dashboard'")
		return nil
	})
}

func joinValues[T ~string](vs []T) string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return strings.Join(out, ", ")
}
