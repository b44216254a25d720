package repositories

import (
	"context"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account, including its version token.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByOwnerID retrieves the single account owned by a client or supplier.
	FindAccountByOwnerID(ctx context.Context, ownerID string) (*domain.Account, error)

	// ListAccounts retrieves a page of accounts ordered by creation time.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account and, when opening is not nil, its opening
	// movement in the same atomic step. A second account for the same owner fails with
	// apperrors.ErrDuplicateAccount.
	SaveAccount(ctx context.Context, account domain.Account, opening *domain.Movement) error

	// UpdateAccount applies a partial update if the stored version still equals
	// expectedVersion, returning the updated account. A stale version yields
	// apperrors.ErrConflict.
	UpdateAccount(ctx context.Context, accountID string, update domain.AccountUpdate, expectedVersion int64) (*domain.Account, error)

	// DeleteAccount hard-deletes an account. It refuses with apperrors.ErrHasActivity if
	// any movement was committed, checked atomically with the delete.
	DeleteAccount(ctx context.Context, accountID string) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
