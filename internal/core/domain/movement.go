package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType indicates whether a movement is a Debit or a Credit.
type MovementType string

const (
	// Debit decreases the balance: the owner owes more or consumes available credit.
	Debit MovementType = "DEBIT"
	// Credit increases the balance, e.g. a payment received.
	Credit MovementType = "CREDIT"
)

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	return t == Debit || t == Credit
}

// ReferenceType tags the business process that produced a movement. It never affects
// balance math.
type ReferenceType string

const (
	ReferenceSale       ReferenceType = "SALE"
	ReferencePayment    ReferenceType = "PAYMENT"
	ReferenceAdjustment ReferenceType = "ADJUSTMENT"
	ReferenceRefund     ReferenceType = "REFUND"
)

// IsValid reports whether r is a known reference type.
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceSale, ReferencePayment, ReferenceAdjustment, ReferenceRefund:
		return true
	}
	return false
}

// Movement is a single committed debit or credit on an account. Movements are
// append-only; corrections are recorded as compensating movements.
type Movement struct {
	MovementID    string          `json:"movementID"`
	AccountID     string          `json:"accountID"`
	Sequence      int64           `json:"sequence"` // per account, 1-based, assigned by the store
	Type          MovementType    `json:"type"`
	Amount        decimal.Decimal `json:"amount"` // always positive
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Description   string          `json:"description"`
	ReferenceType ReferenceType   `json:"referenceType"`
	ReferenceID   *string         `json:"referenceID,omitempty"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// SignedAmount returns the movement's effect on the balance.
func (m Movement) SignedAmount() decimal.Decimal {
	if m.Type == Debit {
		return m.Amount.Neg()
	}
	return m.Amount
}

// MovementFilter narrows a movement listing. Zero values mean "no filter".
// The date range is half open: From <= createdAt < To.
type MovementFilter struct {
	Type *MovementType
	From *time.Time
	To   *time.Time
}

// Matches reports whether m passes the filter.
func (f MovementFilter) Matches(m Movement) bool {
	if f.Type != nil && m.Type != *f.Type {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !m.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

// PageRequest asks for up to Limit movements with Sequence > AfterSequence.
type PageRequest struct {
	AfterSequence int64
	Limit         int
}

// MovementPage is one page of movements in canonical (Sequence ascending) order.
// HasMore is true when further movements matching the filter exist.
type MovementPage struct {
	Movements []Movement
	HasMore   bool
}
