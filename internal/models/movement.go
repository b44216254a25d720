package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType mirrors the movement_type column values.
type MovementType string

const (
	Debit  MovementType = "DEBIT"
	Credit MovementType = "CREDIT"
)

// Movement represents a row of the movements table. Rows are never updated.
type Movement struct {
	MovementID    string          `db:"movement_id"`
	AccountID     string          `db:"account_id"`
	Sequence      int64           `db:"sequence"` // Unique per account
	MovementType  MovementType    `db:"movement_type"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	Description   string          `db:"description"`
	ReferenceType string          `db:"reference_type"`
	ReferenceID   sql.NullString  `db:"reference_id"` // Nullable
	CreatedAt     time.Time       `db:"created_at"`
	CreatedBy     string          `db:"created_by"`
}
