package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"travelbill/internal/domain"
)

// ReconcileOptions controls a bulk re-reconciliation run.
type ReconcileOptions struct {
	BatchSize int
	Workers   int
	DryRun    bool
}

// ReconcileReport summarises a bulk run.
type ReconcileReport struct {
	Scanned int64 `json:"scanned"`
	Updated int64 `json:"updated"`
	Failed  int64 `json:"failed"`
}

// Reconcile recomputes one invoice and rewrites its cached header totals
// when they disagree with the engine. It reports whether a write happened.
func (s *invoiceService) Reconcile(ctx context.Context, tenantID, id uuid.UUID) (*domain.InvoiceView, bool, error) {
	inv, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, false, err
	}
	view := s.view(ctx, inv)
	updated, err := s.persistTotals(ctx, view, false)
	if err != nil {
		return nil, false, err
	}
	return view, updated, nil
}

func (s *invoiceService) persistTotals(ctx context.Context, view *domain.InvoiceView, dryRun bool) (bool, error) {
	totals := view.Breakdown.Totals
	if !view.TotalsDiffer(totals) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	view.ApplyTotals(totals)
	if err := s.repo.UpdateTotals(ctx, view.Invoice); err != nil {
		return false, fmt.Errorf("invoice.Reconcile %s: %w", view.ID, err)
	}
	return true, nil
}

// ReconcileAll walks every stored invoice in id order. Failures on single
// invoices are logged and counted; only a failed scan aborts the run.
func (s *invoiceService) ReconcileAll(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = s.export.BatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	logger := zerolog.Ctx(ctx)

	var report ReconcileReport
	after := uuid.Nil
	for {
		invoices, err := s.repo.ScanAll(ctx, after, opts.BatchSize)
		if err != nil {
			return &report, fmt.Errorf("invoice.ReconcileAll scan after %s: %w", after, err)
		}
		if len(invoices) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i := range invoices {
			inv := &invoices[i]
			g.Go(func() error {
				updated, err := s.persistTotals(gctx, s.view(gctx, inv), opts.DryRun)
				atomic.AddInt64(&report.Scanned, 1)
				switch {
				case err != nil:
					atomic.AddInt64(&report.Failed, 1)
					logger.Error().Err(err).Str("invoice_id", inv.ID.String()).Msg("reconcile failed")
				case updated:
					atomic.AddInt64(&report.Updated, 1)
					logger.Debug().Str("invoice_id", inv.ID.String()).Bool("dry_run", opts.DryRun).Msg("header totals rewritten")
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return &report, err
		}

		after = invoices[len(invoices)-1].ID
		logger.Info().Int64("scanned", report.Scanned).Int64("updated", report.Updated).Msg("reconcile progress")
		if len(invoices) < opts.BatchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return &report, err
		}
	}
	return &report, nil
}
