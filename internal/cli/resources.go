package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/app"
	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
	"github.com/uplug/einvoice-bfa-go/internal/query"
)

// data unwraps a query state. A disabled query means a required input was
// missing.
func data[T any](st query.State[T], field string) (T, error) {
	var zero T
	if st.Status == query.StatusDisabled {
		return zero, &domain.ErrValidation{Field: field, Message: "is required"}
	}
	if st.Err != nil {
		return zero, st.Err
	}
	return st.Data, nil
}

// present rejects an empty 2xx payload.
func present[T any](endpoint string) func(*T, error) (*T, error) {
	return func(v *T, err error) (*T, error) {
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, &domain.ErrMalformedResponse{Endpoint: endpoint, Err: errors.New("empty response")}
		}
		return v, nil
	}
}

// ============================================================
// Dashboard
// ============================================================

func newDashboardCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show invoice statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				d, err := a.Services.Dashboard.Load(ctx)
				if err != nil {
					return err
				}
				return g.emit(p, d, func() error {
					s := d.Stats
					if s == nil {
						s = &domain.DashboardStats{}
					}
					p.Header("Dashboard")
					if d.Profile != nil {
						p.Field("Business", d.Profile.ID)
						p.Field("Industry", string(d.Profile.IndustryClassification))
					}
					p.Field("Total invoices", strconv.Itoa(s.TotalInvoices))
					p.Field("Draft", strconv.Itoa(s.DraftInvoices))
					p.Field("Sent", strconv.Itoa(s.SentInvoices))
					p.Field("Paid", strconv.Itoa(s.PaidInvoices))
					p.Field("Cancelled", strconv.Itoa(s.CancelledInvoices))
					p.Field("Overdue", strconv.Itoa(s.OverdueInvoices))
					p.Field("Revenue", money(s.TotalRevenue, s.Currency))
					p.Field("Pending", money(s.PendingAmount, s.Currency))
					return nil
				})
			})
		},
	}
}

// ============================================================
// Invoices
// ============================================================

func newInvoicesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoices",
		Aliases: []string{"inv"},
		Short:   "Browse invoices",
	}

	var f domain.InvoiceFilters
	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = domain.InvoiceStatus(strings.ToLower(status))
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				invoices, err := data(a.Services.Invoices.List(ctx, f), "filters")
				if err != nil {
					return err
				}
				return g.emit(p, invoices, func() error {
					if len(invoices) == 0 {
						p.Print("No invoices found.")
						return nil
					}
					t := p.NewTable("NUMBER", "CUSTOMER", "ISSUED", "DUE", "AMOUNT", "STATUS")
					for _, inv := range invoices {
						t.AddRow(inv.InvoiceNumber, inv.CustomerName, inv.IssueDate, inv.DueDate,
							money(inv.PayableAmount, inv.DocumentCurrencyCode), p.StatusBadge(string(inv.Status)))
					}
					return t.Render()
				})
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "draft, sent, delivered, paid or cancelled")
	list.Flags().StringVar(&f.Search, "search", "", "free-text search")
	list.Flags().StringVar(&f.DateFrom, "from", "", "issued on or after (YYYY-MM-DD)")
	list.Flags().StringVar(&f.DateTo, "to", "", "issued on or before (YYYY-MM-DD)")
	list.Flags().IntVar(&f.Limit, "limit", 0, "page size (max 200)")
	list.Flags().IntVar(&f.Offset, "offset", 0, "page offset")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				inv, err := present[domain.Invoice]("invoice")(data(a.Services.Invoices.Get(ctx, args[0]), "id"))
				if err != nil {
					return err
				}
				return g.emit(p, inv, func() error {
					p.Header("Invoice " + inv.InvoiceNumber)
					p.Field("Status", p.StatusBadge(string(inv.Status)))
					p.Field("Supplier", inv.SupplierName)
					p.Field("Customer", inv.CustomerName)
					p.Field("Issued", inv.IssueDate)
					p.Field("Due", inv.DueDate)
					p.Field("Net", money(inv.TaxExclusiveAmount, inv.DocumentCurrencyCode))
					p.Field("Gross", money(inv.TaxInclusiveAmount, inv.DocumentCurrencyCode))
					p.Field("Payable", money(inv.PayableAmount, inv.DocumentCurrencyCode))
					p.Field("Peppol", inv.PeppolStatus)
					p.Field("ERP sync", inv.ErpSyncStatus)
					return nil
				})
			})
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

// ============================================================
// ERP
// ============================================================

func newErpCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "erp",
		Short: "Manage ERP integrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "adapters",
		Short: "List available ERP adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				adapters, err := data(a.Services.Erp.Adapters(ctx), "adapters")
				if err != nil {
					return err
				}
				return g.emit(p, adapters, func() error {
					t := p.NewTable("SYSTEM", "NAME")
					for _, ad := range adapters {
						t.AddRow(ad.Name, ad.Label())
					}
					return t.Render()
				})
			})
		},
	})

	for _, op := range []domain.ErpOperation{domain.ErpPush, domain.ErpPull, domain.ErpSync} {
		cmd.AddCommand(newErpRunCmd(g, op))
	}
	return cmd
}

func newErpRunCmd(g *globals, op domain.ErpOperation) *cobra.Command {
	return &cobra.Command{
		Use:   string(op) + " SYSTEM",
		Short: strings.ToUpper(string(op[:1])) + string(op[1:]) + " invoices with an ERP system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				res, err := a.Services.Erp.Run(ctx, op, args[0])
				if err != nil {
					return err
				}
				if res == nil {
					return &domain.ErrMalformedResponse{Endpoint: "erp " + string(op)}
				}
				return g.emit(p, res, func() error {
					if !res.Success {
						p.Warning("%s %s finished with errors: %s", op, args[0], res.Message)
					} else {
						p.Success("%s %s: %d synced, %d failed", op, args[0], res.Synced, res.Failed)
					}
					return nil
				})
			})
		},
	}
}

// ============================================================
// E-invoice
// ============================================================

func newActionsCmd(g *globals) *cobra.Command {
	var actionType string
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Show the e-invoice action log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				recs, err := data(a.Services.EInvoice.Actions(ctx, domain.ActionType(strings.ToUpper(actionType))), "type")
				if err != nil {
					return err
				}
				return g.emit(p, recs, func() error {
					if len(recs) == 0 {
						p.Print("No actions recorded.")
						return nil
					}
					t := p.NewTable("CREATED", "ACTION", "REFERENCE", "STATUS", "MESSAGE")
					for _, r := range recs {
						t.AddRow(r.CreatedAt, string(r.ActionType), r.Reference, p.StatusBadge(r.Status), r.Message)
					}
					return t.Render()
				})
			})
		},
	}
	cmd.Flags().StringVar(&actionType, "type", "", "only this action type, e.g. VALIDATE or REPORT")
	return cmd
}

func newEInvoiceCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "einvoice",
		Short: "Validate, report and sign e-invoices",
	}

	var validateFile, reportFile, signFile, email, code string

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate an invoice document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readJSONFile(validateFile)
			if err != nil {
				return err
			}
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				rec, err := present[domain.EInvoiceActionRecord]("validate")(a.Services.EInvoice.Validate(ctx, domain.ValidateRequest{Invoice: raw}))
				if err != nil {
					return err
				}
				return g.emit(p, rec, func() error { return printAction(p, rec) })
			})
		},
	}
	validate.Flags().StringVarP(&validateFile, "file", "f", "", "invoice JSON file")

	report := &cobra.Command{
		Use:   "report",
		Short: "Report an invoice to the tax authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(reportFile)
			if err != nil {
				return err
			}
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				rec, err := present[domain.EInvoiceActionRecord]("report")(a.Services.EInvoice.Report(ctx, payload))
				if err != nil {
					return err
				}
				return g.emit(p, rec, func() error { return printAction(p, rec) })
			})
		},
	}
	report.Flags().StringVarP(&reportFile, "file", "f", "", "report payload JSON file")

	sign := &cobra.Command{
		Use:   "sign",
		Short: "Sign an invoice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(signFile)
			if err != nil {
				return err
			}
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				rec, err := present[domain.InvoiceSigningRecord]("sign")(a.Services.EInvoice.Sign(ctx, payload))
				if err != nil {
					return err
				}
				return g.emit(p, rec, func() error {
					p.Success("Signed %s", rec.IRN)
					p.Field("Status", p.StatusBadge(rec.Status))
					p.Field("Message", rec.Message)
					return nil
				})
			})
		},
	}
	sign.Flags().StringVarP(&signFile, "file", "f", "", "invoice JSON file")

	logins := &cobra.Command{
		Use:   "taxpayer-logins",
		Short: "List taxpayer authentications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				recs, err := data(a.Services.EInvoice.TaxpayerLogins(ctx), "logins")
				if err != nil {
					return err
				}
				return g.emit(p, recs, func() error {
					t := p.NewTable("CREATED", "EMAIL", "STATUS", "RECEIVED")
					for _, r := range recs {
						t.AddRow(r.CreatedAt, r.Email, p.StatusBadge(r.Status), r.ReceivedAt)
					}
					return t.Render()
				})
			})
		},
	}

	auth := &cobra.Command{
		Use:   "taxpayer-auth",
		Short: "Authenticate a taxpayer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				rec, err := present[domain.TaxpayerAuthRecord]("taxpayer auth")(a.Services.EInvoice.TaxpayerAuth(ctx, domain.TaxpayerAuthRequest{Email: email, Code: code}))
				if err != nil {
					return err
				}
				return g.emit(p, rec, func() error {
					p.Success("Taxpayer authentication %s for %s", p.StatusBadge(rec.Status), rec.Email)
					if rec.Message != "" {
						p.Print("%s", rec.Message)
					}
					return nil
				})
			})
		},
	}
	auth.Flags().StringVar(&email, "email", "", "taxpayer email")
	auth.Flags().StringVar(&code, "code", "", "verification code, when one was issued")

	download := &cobra.Command{
		Use:   "download IRN",
		Short: "Fetch an e-invoice by IRN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				rec, err := present[domain.EInvoiceActionRecord]("download")(data(a.Services.EInvoice.Download(ctx, strings.TrimSpace(args[0])), "irn"))
				if err != nil {
					return err
				}
				return g.emit(p, rec, func() error {
					if rec.ResponseBody != "" {
						p.Print("%s", rec.ResponseBody)
						return nil
					}
					return printAction(p, rec)
				})
			})
		},
	}

	cmd.AddCommand(validate, report, sign, logins, auth, download)
	return cmd
}

func printAction(p *Printer, rec *domain.EInvoiceActionRecord) error {
	p.Header(string(rec.ActionType))
	p.Field("Reference", rec.Reference)
	p.Field("Status", p.StatusBadge(rec.Status))
	p.Field("Message", rec.Message)
	p.Field("Created", rec.CreatedAt)
	return nil
}

func readJSONFile(path string) (json.RawMessage, error) {
	if path == "" {
		return nil, &CLIError{Summary: "no input file", Suggestion: "pass --file with a JSON document", ExitCode: ExitUsageError}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &CLIError{Summary: "cannot read " + path, Detail: err.Error(), ExitCode: ExitUsageError}
	}
	if !json.Valid(raw) {
		return nil, &CLIError{Summary: path + " is not valid JSON", ExitCode: ExitUsageError}
	}
	return raw, nil
}

func readPayload(path string) (map[string]any, error) {
	raw, err := readJSONFile(path)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &CLIError{Summary: path + " must hold a JSON object", Detail: err.Error(), ExitCode: ExitUsageError}
	}
	return payload, nil
}

// ============================================================
// Settings
// ============================================================

func newSettingsCmd(g *globals) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the business profile and API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.guarded(cmd, guard.AreaProtected, func(ctx context.Context, a *app.App, p *Printer) error {
				profile, err := data(a.Services.Business.Profile(ctx), "profile")
				if err != nil {
					return err
				}
				if profile == nil {
					return &domain.ErrNotFound{Resource: "business profile"}
				}
				keys, kerr := data(a.Services.Business.APIKeys(ctx, profile.ID), "businessId")
				if kerr != nil {
					a.Logger.Debug("api keys unavailable", zap.Error(kerr))
				}
				if keys != nil && !reveal {
					masked := *keys
					masked.SecretKey = mask(masked.SecretKey)
					keys = &masked
				}

				return g.emit(p, map[string]any{"profile": profile, "apiKeys": keys}, func() error {
					p.Header("Business profile")
					p.Field("ID", profile.ID)
					if profile.TIN != nil {
						p.Field("TIN", profile.TIN.TIN)
						p.Field("Business name", profile.TIN.BusinessName)
					}
					p.Field("Industry", string(profile.IndustryClassification))
					p.Field("ERP", string(profile.ErpSolution))
					p.Field("Reporting", string(profile.ReportingMethods))
					p.Field("Notifications", string(profile.NotificationPreferences))
					p.Field("Exchange", string(profile.PreferredInvoiceExchangeFramework))
					if profile.AggregateTurnover != nil {
						p.Field("Turnover", fmt.Sprintf("%.2f", *profile.AggregateTurnover))
					}

					p.Header("API keys")
					if keys == nil {
						p.Warning("API keys unavailable: %v", kerr)
						return nil
					}
					p.Field("Public key", keys.PublicKey)
					p.Field("Secret key", keys.SecretKey)
					p.Field("Active", p.StatusBadge(boolString(keys.Active)))
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the secret key in full")
	return cmd
}

func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
