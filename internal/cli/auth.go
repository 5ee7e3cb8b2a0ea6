package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/uplug/einvoice-bfa-go/internal/app"
	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/guard"
)

// ============================================================
// Sign in / sign out
// ============================================================

func newLoginCmd(g *globals) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with email and password.

The password may also be given in EINVOICE_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("EINVOICE_PASSWORD")
			}
			return g.run(cmd, func(ctx context.Context, a *app.App, p *Printer) error {
				sess, err := a.Services.Auth.Login(ctx, email, password)
				if err != nil {
					return err
				}
				landing := guard.Landing(sess)
				return g.emit(p, map[string]any{"session": newStatusView(a), "redirectTo": landing}, func() error {
					p.Success("Signed in as %s", sess.User.Email)
					if landing == guard.PathOnboarding {
						p.Hint("finish business setup with 'einvoicectl onboard'")
					} else {
						p.Hint("see your dashboard with 'einvoicectl dashboard'")
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *app.App, p *Printer) error {
				if err := a.Services.Auth.Logout(ctx); err != nil {
					return err
				}
				return g.emit(p, map[string]string{"redirectTo": guard.PathLogin}, func() error {
					p.Success("Signed out")
					return nil
				})
			})
		},
	}
}

// ============================================================
// Registration
// ============================================================

func newRegisterCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account in two steps:

  einvoicectl register start --email ops@acme.ng
  einvoicectl register complete --email ops@acme.ng --otp 123456 --password ...`,
	}

	var startEmail string
	start := &cobra.Command{
		Use:   "start",
		Short: "Send a one-time code to the email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *app.App, p *Printer) error {
				if err := a.Services.Auth.InitiateSetup(ctx, startEmail); err != nil {
					return err
				}
				return g.emit(p, map[string]string{"email": startEmail}, func() error {
					p.Success("Verification code sent to %s", startEmail)
					p.Hint("run 'einvoicectl register complete' with the code")
					return nil
				})
			})
		},
	}
	start.Flags().StringVar(&startEmail, "email", "", "account email")

	var req domain.CreateAccountRequest
	var role string
	complete := &cobra.Command{
		Use:   "complete",
		Short: "Create the account with the one-time code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.EntityRole = domain.EntityRole(role)
			return g.run(cmd, func(ctx context.Context, a *app.App, p *Printer) error {
				acct, err := a.Services.Auth.Register(ctx, req)
				if err != nil {
					return err
				}
				return g.emit(p, map[string]any{"account": acct, "redirectTo": guard.PathLogin}, func() error {
					p.Success("Account created for %s", req.Email)
					p.Hint("sign in with 'einvoicectl login'")
					return nil
				})
			})
		},
	}
	complete.Flags().StringVar(&req.Email, "email", "", "account email")
	complete.Flags().StringVar(&req.OTP, "otp", "", "one-time code from the email")
	complete.Flags().StringVar(&req.Password, "password", "", "new password (min 8 characters)")
	complete.Flags().StringVar(&role, "role", "", "entity role: BUSINESS, SYSTEM_INTEGRATOR or ADMIN (default BUSINESS)")

	cmd.AddCommand(start, complete)
	return cmd
}

// ============================================================
// Password reset
// ============================================================

func newPasswordCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Recover a forgotten password",
	}

	var email string
	forgot := &cobra.Command{
		Use:   "forgot",
		Short: "Email a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *app.App, p *Printer) error {
				res, err := a.Services.Auth.RequestPasswordReset(ctx, email)
				if err != nil {
					return err
				}
				return g.emit(p, res, func() error {
					p.Success("%s", messageOr(res, "Reset link sent to "+email))
					return nil
				})
			})
		},
	}
	forgot.Flags().StringVar(&email, "email", "", "account email")

	var token, password, confirm string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with the reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *app.App, p *Printer) error {
				res, err := a.Services.Auth.ResetPassword(ctx, token, password, confirm)
				if err != nil {
					return err
				}
				return g.emit(p, map[string]any{"result": res, "redirectTo": guard.PathLogin}, func() error {
					p.Success("%s", messageOr(res, "Password updated"))
					p.Hint("sign in with 'einvoicectl login'")
					return nil
				})
			})
		},
	}
	reset.Flags().StringVar(&token, "token", "", "token from the reset link")
	reset.Flags().StringVar(&password, "password", "", "new password")
	reset.Flags().StringVar(&confirm, "confirm", "", "new password again")

	cmd.AddCommand(forgot, reset)
	return cmd
}

func messageOr(res *domain.MessageResponse, fallback string) string {
	if res != nil && res.Message != "" {
		return res.Message
	}
	return fallback
}

// ============================================================
// Session status & navigation
// ============================================================

type statusView struct {
	Authenticated   bool                    `json:"authenticated"`
	User            *domain.UserInfo        `json:"user"`
	Onboarded       bool                    `json:"onboarded"`
	BusinessProfile *domain.BusinessProfile `json:"businessProfile"`
	TokenExpiresAt  *time.Time              `json:"tokenExpiresAt,omitempty"`
	Landing         string                  `json:"landing"`
}

func newStatusView(a *app.App) statusView {
	s := a.Session.Snapshot()
	v := statusView{
		Authenticated:   s.Authenticated(),
		User:            s.User,
		Onboarded:       s.Onboarded,
		BusinessProfile: s.BusinessProfile,
		Landing:         guard.Landing(s),
	}
	if exp, err := a.Session.TokenExpiry(); err == nil {
		v.TokenExpiresAt = &exp
	}
	return v
}

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *app.App, p *Printer) error {
				v := newStatusView(a)
				return g.emit(p, v, func() error {
					p.Header("Session")
					if !v.Authenticated {
						p.Field("Signed in", p.StatusBadge("false"))
						p.Hint("sign in with 'einvoicectl login'")
						return nil
					}
					p.Field("Signed in", p.StatusBadge("true"))
					if v.User != nil {
						p.Field("User", v.User.Name+" <"+v.User.Email+">")
					}
					p.Field("Onboarded", p.StatusBadge(boolString(v.Onboarded)))
					if v.BusinessProfile != nil {
						p.Field("Business", v.BusinessProfile.ID)
					}
					if v.TokenExpiresAt != nil {
						exp := v.TokenExpiresAt.Local().Format(time.RFC1123)
						if time.Now().After(*v.TokenExpiresAt) {
							exp += " " + p.StatusBadge("expired")
						}
						p.Field("Token expires", exp)
					}
					p.Field("Landing", v.Landing)
					return nil
				})
			})
		},
	}
}

func newNavigateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate PATH",
		Short: "Show where a console path leads for the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *app.App, p *Printer) error {
				d := guard.Resolve(args[0], a.Session.Snapshot())
				a.Metrics.IncrNavigation(string(d.Action))
				return g.emit(p, d, func() error {
					if d.Rendered() {
						p.Success("%s renders %s", d.Path, d.Title)
						return nil
					}
					p.Print("%s redirects to %s", args[0], d.RedirectTo)
					return nil
				})
			})
		},
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
