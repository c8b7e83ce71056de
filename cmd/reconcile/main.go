// Command reconcile recomputes every stored invoice from its line items and
// rewrites header totals that drifted from the computed values.
// Usage: go run ./cmd/reconcile [--batch-size N] [--workers N] [--dry-run]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"travelbill/internal/billing"
	"travelbill/internal/config"
	"travelbill/internal/email/noop"
	"travelbill/internal/logger"
	"travelbill/internal/pdf"
	"travelbill/internal/repository/postgres"
	"travelbill/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("reconcile failed")
	}
}

func run() error {
	flags := pflag.NewFlagSet("reconcile", pflag.ContinueOnError)
	batchSize := flags.Int("batch-size", 100, "invoices read per scan")
	workers := flags.Int("workers", 4, "invoices reconciled concurrently")
	dryRun := flags.Bool("dry-run", false, "report drift without writing")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	zl := logger.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(zl.WithContext(context.Background()), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Only the repository and the engine are exercised; storage is never touched.
	svc := service.NewInvoiceService(
		postgres.NewInvoiceRepo(db), postgres.NewSequenceRepo(db),
		nil, noop.NewNoopSender(), pdf.NewGenerator(cfg.Issuer),
		billing.New(cfg.Billing.Policy()), cfg.Billing, cfg.Export, &cfg.S3,
	)

	start := time.Now()
	report, err := svc.ReconcileAll(ctx, service.ReconcileOptions{
		BatchSize: *batchSize,
		Workers:   *workers,
		DryRun:    *dryRun,
	})
	if report != nil {
		zl.Info().
			Int64("scanned", report.Scanned).
			Int64("updated", report.Updated).
			Int64("failed", report.Failed).
			Bool("dry_run", *dryRun).
			Dur("elapsed", time.Since(start)).
			Msg("reconcile complete")
	}
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d invoices could not be reconciled", report.Failed)
	}
	return nil
}
