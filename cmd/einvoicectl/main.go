// Command einvoicectl is the terminal client of the e-invoicing console.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/app"
	"github.com/uplug/einvoice-bfa-go/internal/cli"
	"github.com/uplug/einvoice-bfa-go/internal/config"
)

func main() {
	_ = config.LoadDotEnv(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, func(ctx context.Context, logger *zap.Logger) (*app.App, error) {
		return app.New(ctx, config.Load(), logger, app.Options{})
	}, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}
