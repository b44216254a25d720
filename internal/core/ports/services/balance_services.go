package services

import (
	"context"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceProposerSvc decides whether a movement may be committed. Implementations must
// be pure: no I/O, no side effects.
type BalanceProposerSvc interface {
	// ProposeMovement returns the balance the account would have after the movement, or
	// the reason the movement is rejected.
	ProposeMovement(account domain.Account, movementType domain.MovementType, amount decimal.Decimal) (decimal.Decimal, error)
}

// BalanceReconcilerSvc validates the stored balance against the movement log.
type BalanceReconcilerSvc interface {
	// RecomputeBalance replays every committed movement in canonical order.
	RecomputeBalance(ctx context.Context, accountID string) (decimal.Decimal, error)

	// Reconcile compares the stored balance with the replayed one.
	Reconcile(ctx context.Context, accountID string) (*domain.ReconciliationReport, error)
}

// BalanceEngineSvc combines proposal and reconciliation.
type BalanceEngineSvc interface {
	BalanceProposerSvc
	BalanceReconcilerSvc
}
