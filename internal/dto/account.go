package dto

import (
	"time"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to open a current account for an owner.
// Amounts are validated by the service so the caller gets the precise error kind.
type CreateAccountRequest struct {
	OwnerID        string          `json:"ownerID" binding:"required,max=128"`
	OwnerLabel     string          `json:"ownerLabel" binding:"max=255"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	InitialBalance decimal.Decimal `json:"initialBalance"` // Optional, defaults to zero
}

// UpdateCreditLimitRequest defines the payload for changing an account's credit limit.
type UpdateCreditLimitRequest struct {
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

// AccountResponse defines the data returned for an account.
// Both the raw balance and the current limit are exposed so callers can compute their
// own over-limit policy.
type AccountResponse struct {
	AccountID       string          `json:"accountID"`
	OwnerID         string          `json:"ownerID"`
	OwnerLabel      string          `json:"ownerLabel"`
	Balance         decimal.Decimal `json:"balance"`
	CreditLimit     decimal.Decimal `json:"creditLimit"`
	AvailableCredit decimal.Decimal `json:"availableCredit"`
	IsActive        bool            `json:"isActive"`
	Version         int64           `json:"version"`
	MovementCount   int64           `json:"movementCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
	LastUpdatedAt   time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy   string          `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       acc.AccountID,
		OwnerID:         acc.OwnerID,
		OwnerLabel:      acc.OwnerLabel,
		Balance:         acc.Balance,
		CreditLimit:     acc.CreditLimit,
		AvailableCredit: acc.AvailableCredit(),
		IsActive:        acc.IsActive,
		Version:         acc.Version,
		MovementCount:   acc.MovementCount,
		CreatedAt:       acc.CreatedAt,
		CreatedBy:       acc.CreatedBy,
		LastUpdatedAt:   acc.LastUpdatedAt,
		LastUpdatedBy:   acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc)
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// AccountActivityResponse answers the deletion precondition check.
type AccountActivityResponse struct {
	AccountID    string `json:"accountID"`
	HasMovements bool   `json:"hasMovements"`
}
