package models

import (
	"github.com/shopspring/decimal"
)

// Account represents a row of the accounts table.
type Account struct {
	AccountID     string          `db:"account_id"`
	OwnerID       string          `db:"owner_id"` // Unique
	OwnerLabel    string          `db:"owner_label"`
	Balance       decimal.Decimal `db:"balance"`
	CreditLimit   decimal.Decimal `db:"credit_limit"`
	IsActive      bool            `db:"is_active"`
	Version       int64           `db:"version"`
	MovementCount int64           `db:"movement_count"`
	AuditFields                   // Embed common audit fields
}
