package services

import (
	"context"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/SscSPs/current_account_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByOwnerID retrieves the account that belongs to a client or supplier.
	GetAccountByOwnerID(ctx context.Context, ownerID string) (*domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)

	// HasMovements is the deletion precondition check.
	HasMovements(ctx context.Context, accountID string) (bool, error)
}

// AccountWriterSvc defines the account lifecycle operations
type AccountWriterSvc interface {
	// CreateAccount opens an account for an owner. A non-zero initial balance is recorded
	// as an opening adjustment movement.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor string) (*domain.Account, error)

	// UpdateCreditLimit changes the limit for future movements only.
	UpdateCreditLimit(ctx context.Context, accountID string, newLimit decimal.Decimal, actor string) (*domain.Account, error)

	// DeactivateAccount stops the account from accepting new movements.
	DeactivateAccount(ctx context.Context, accountID string, actor string) (*domain.Account, error)

	// ReactivateAccount lets the account accept movements again.
	ReactivateAccount(ctx context.Context, accountID string, actor string) (*domain.Account, error)

	// DeleteAccount removes an account that never had a movement committed.
	DeleteAccount(ctx context.Context, accountID string, actor string) error
}

// AccountSvcFacade combines all account-related service interfaces
// This is a facade for clients that need access to all operations
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
