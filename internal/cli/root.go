// Package cli is the einvoicectl command tree. Every command runs the same
// services as the BFA server against a session persisted between invocations.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/app"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
	"github.com/uplug/einvoice-bfa-go/internal/infra/observability"
)

// Builder assembles the app a command runs against.
type Builder func(ctx context.Context, logger *zap.Logger) (*app.App, error)

type globals struct {
	build   Builder
	verbose bool
	color   string
	json    bool
}

// NewRootCmd creates the command tree.
func NewRootCmd(build Builder) *cobra.Command {
	return newRootCmd(&globals{build: build})
}

// Execute runs the command tree with args and returns the process exit code.
// Errors are printed to errOut.
func Execute(ctx context.Context, build Builder, args []string, out, errOut io.Writer) int {
	g := &globals{build: build}
	root := newRootCmd(g)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		ce := Describe(err)
		g.printer(root).FormatError(ce)
		return ce.ExitCode
	}
	return ExitSuccess
}

func newRootCmd(g *globals) *cobra.Command {

	root := &cobra.Command{
		Use:   "einvoicectl",
		Short: "E-invoicing console for the terminal",
		Long: `einvoicectl drives the e-invoicing backend from the terminal.

The session is stored between runs, so sign in once and keep working.

Example usage:
  einvoicectl login --email ops@acme.ng --password ...
  einvoicectl onboard --tin 12345678-0001 --industry RETAIL --erp SAP
  einvoicectl dashboard
  einvoicectl invoices list --status paid
  einvoicectl erp sync sap`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ParseColorMode(g.color)
			return err
		},
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&g.color, "color", "auto", "colorize output: auto, always or never")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "print JSON instead of text")

	root.AddCommand(
		newLoginCmd(g),
		newLogoutCmd(g),
		newRegisterCmd(g),
		newPasswordCmd(g),
		newStatusCmd(g),
		newNavigateCmd(g),
		newOnboardCmd(g),
		newDashboardCmd(g),
		newInvoicesCmd(g),
		newErpCmd(g),
		newActionsCmd(g),
		newEInvoiceCmd(g),
		newSettingsCmd(g),
	)
	return root
}

func (g *globals) printer(cmd *cobra.Command) *Printer {
	mode, _ := ParseColorMode(g.color)
	return NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), ResolveColors(mode))
}

// run builds the app, hands it to fn and closes it afterwards.
func (g *globals) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, p *Printer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := observability.NewCLILogger(g.verbose)
	defer logger.Sync()

	a, err := g.build(ctx, logger)
	if err != nil {
		return &CLIError{Summary: "cannot start", Detail: err.Error(), Suggestion: "check your environment and .env file", ExitCode: ExitGeneral}
	}
	defer a.Close()

	return fn(ctx, a, g.printer(cmd))
}

// guarded is run behind the guard of area.
func (g *globals) guarded(cmd *cobra.Command, area guard.Area, fn func(ctx context.Context, a *app.App, p *Printer) error) error {
	return g.run(cmd, func(ctx context.Context, a *app.App, p *Printer) error {
		d := guard.Check(area, a.Session.Snapshot())
		if !d.Rendered() {
			a.Metrics.IncrNavigation(string(d.Action))
			return redirectError(d.RedirectTo)
		}
		return fn(ctx, a, p)
	})
}

// emit prints v as JSON under --json, otherwise calls text.
func (g *globals) emit(p *Printer, v any, text func() error) error {
	if g.json {
		return p.JSON(v)
	}
	return text()
}

func money(v float64, currency string) string {
	if currency == "" {
		currency = "NGN"
	}
	return fmt.Sprintf("%s %.2f", currency, v)
}
