package repositories

import (
	"context"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MovementReader defines read operations over an account's movement log
type MovementReader interface {
	// ListMovementsByAccountID returns movements in canonical order (Sequence ascending)
	// that match filter and have a Sequence greater than page.AfterSequence.
	ListMovementsByAccountID(ctx context.Context, accountID string, filter domain.MovementFilter, page domain.PageRequest) (*domain.MovementPage, error)

	// HasMovements reports whether any movement was committed on the account.
	HasMovements(ctx context.Context, accountID string) (bool, error)
}

// MovementWriter defines the single write path of the ledger
type MovementWriter interface {
	// AppendMovementAndUpdateBalance atomically appends movement and sets the account's
	// balance to newBalance, provided the account's version still equals expectedVersion.
	// The store assigns Sequence and BalanceAfter and bumps the version.
	// Returns apperrors.ErrNotFound if the account is gone and apperrors.ErrConflict if
	// another writer advanced it first.
	AppendMovementAndUpdateBalance(ctx context.Context, accountID string, movement domain.Movement, newBalance decimal.Decimal, expectedVersion int64) (*domain.Movement, error)
}

// MovementRepositoryFacade combines all movement-related repository interfaces
type MovementRepositoryFacade interface {
	MovementReader
	MovementWriter
}
