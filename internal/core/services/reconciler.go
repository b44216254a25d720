package services

import (
	"context"
	"log/slog"
	"time"

	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/current_account_ledger/internal/core/ports/services"
	"github.com/SscSPs/current_account_ledger/internal/middleware"
)

const (
	defaultReconcileInterval  = 15 * time.Minute
	defaultReconcileBatchSize = 100
)

// ReconcileSummary describes one pass over all accounts.
type ReconcileSummary struct {
	Checked  int
	Drifted  int
	Failed   int
	Duration time.Duration
}

// Reconciler periodically replays every account's movement log and reports drift
// between the stored and the derived balance. It never corrects balances itself.
type Reconciler struct {
	BaseService
	accounts  portsrepo.AccountReader
	engine    portssvc.BalanceReconcilerSvc
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// ReconcilerOption is a functional option for configuring the reconciler
type ReconcilerOption func(*Reconciler)

// WithReconcileInterval sets the time between passes.
func WithReconcileInterval(interval time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithReconcileBatchSize sets how many accounts are loaded per page.
func WithReconcileBatchSize(size int) ReconcilerOption {
	return func(r *Reconciler) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// WithReconcilerLogger sets the logger used outside of request scope.
func WithReconcilerLogger(logger *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// NewReconciler creates a reconciler over the given accounts and engine.
func NewReconciler(accounts portsrepo.AccountReader, engine portssvc.BalanceReconcilerSvc, options ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		accounts:  accounts,
		engine:    engine,
		interval:  defaultReconcileInterval,
		batchSize: defaultReconcileBatchSize,
		logger:    slog.Default(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Run performs a pass every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ctx = r.withLogger(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.LogInfo(ctx, "Reconciler started", slog.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.LogInfo(ctx, "Reconciler stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.LogError(ctx, err, "Reconciliation pass aborted")
			}
		}
	}
}

// RunOnce walks all accounts page by page. Failures on single accounts are logged and
// counted; only a failure to list accounts or a cancelled ctx aborts the pass.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileSummary, error) {
	ctx = r.withLogger(ctx)
	start := time.Now()
	var summary ReconcileSummary

	for offset := 0; ; offset += r.batchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		accounts, err := r.accounts.ListAccounts(ctx, r.batchSize, offset)
		if err != nil {
			return summary, err
		}

		for _, account := range accounts {
			report, err := r.engine.Reconcile(ctx, account.AccountID)
			if err != nil {
				if ctx.Err() != nil {
					return summary, ctx.Err()
				}
				summary.Failed++
				r.LogError(ctx, err, "Failed to reconcile account", slog.String("account_id", account.AccountID))
				continue
			}
			summary.Checked++
			if !report.InSync() {
				summary.Drifted++
				r.GetLogger(ctx).Error("Balance drift detected",
					slog.String("account_id", report.AccountID),
					slog.String("stored", report.StoredBalance.String()),
					slog.String("derived", report.DerivedBalance.String()),
					slog.String("drift", report.Drift.String()),
					slog.Int64("movements", report.MovementCount),
					slog.Int64("expected_movements", report.ExpectedMovementCount),
					slog.Int64("broken_at_sequence", report.BrokenAtSequence))
			}
		}

		if len(accounts) < r.batchSize {
			break
		}
	}

	summary.Duration = time.Since(start)
	r.LogInfo(ctx, "Reconciliation pass finished",
		slog.Int("checked", summary.Checked),
		slog.Int("drifted", summary.Drifted),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

func (r *Reconciler) withLogger(ctx context.Context) context.Context {
	return middleware.WithLogger(ctx, r.logger.With(slog.String("component", "reconciler")))
}
