package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the current account (cuenta corriente) of a single client or supplier.
//
// Balance is a cache of the movement log: it must always equal the sum of credits minus
// the sum of debits over the account's committed movements. Version is the optimistic
// concurrency token; every write that changes the account bumps it.
type Account struct {
	AccountID     string          `json:"accountID"`
	OwnerID       string          `json:"ownerID"`
	OwnerLabel    string          `json:"ownerLabel"`
	Balance       decimal.Decimal `json:"balance"`
	CreditLimit   decimal.Decimal `json:"creditLimit"`
	IsActive      bool            `json:"isActive"`
	Version       int64           `json:"version"`
	MovementCount int64           `json:"movementCount"`
	AuditFields
}

// AvailableCredit is how much more the account may be debited right now.
func (a Account) AvailableCredit() decimal.Decimal {
	return a.Balance.Add(a.CreditLimit)
}

// IsOverLimit reports whether the balance sits below the current credit limit. This can
// only happen after the limit was lowered; existing movements are never invalidated.
func (a Account) IsOverLimit() bool {
	return a.Balance.LessThan(a.CreditLimit.Neg())
}

// AccountUpdate carries a partial update. Nil fields are left untouched.
type AccountUpdate struct {
	OwnerLabel  *string
	CreditLimit *decimal.Decimal
	IsActive    *bool
	UpdatedBy   string
	UpdatedAt   time.Time
}

// IsEmpty reports whether the update changes nothing.
func (u AccountUpdate) IsEmpty() bool {
	return u.OwnerLabel == nil && u.CreditLimit == nil && u.IsActive == nil
}

// Apply returns a copy of acc with the update applied, including the audit fields. The
// version is left to the store.
func (u AccountUpdate) Apply(acc Account) Account {
	if u.OwnerLabel != nil {
		acc.OwnerLabel = *u.OwnerLabel
	}
	if u.CreditLimit != nil {
		acc.CreditLimit = *u.CreditLimit
	}
	if u.IsActive != nil {
		acc.IsActive = *u.IsActive
	}
	if u.UpdatedBy != "" {
		acc.LastUpdatedBy = u.UpdatedBy
	}
	if !u.UpdatedAt.IsZero() {
		acc.LastUpdatedAt = u.UpdatedAt
	}
	return acc
}
