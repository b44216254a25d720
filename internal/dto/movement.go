package dto

import (
	"time"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordMovementRequest is the payload sales, payment and adjustment workflows send to
// record a ledger event.
type RecordMovementRequest struct {
	Type          domain.MovementType  `json:"type" binding:"required,movement_type"`
	Amount        decimal.Decimal      `json:"amount"`
	Description   string               `json:"description" binding:"max=500"`
	ReferenceType domain.ReferenceType `json:"referenceType" binding:"required,reference_type"`
	ReferenceID   *string              `json:"referenceID" binding:"omitempty,max=128"`
}

// MovementResponse defines the data returned for a committed movement.
type MovementResponse struct {
	MovementID    string               `json:"movementID"`
	AccountID     string               `json:"accountID"`
	Sequence      int64                `json:"sequence"`
	Type          domain.MovementType  `json:"type"`
	Amount        decimal.Decimal      `json:"amount"`
	BalanceAfter  decimal.Decimal      `json:"balanceAfter"`
	Description   string               `json:"description"`
	ReferenceType domain.ReferenceType `json:"referenceType"`
	ReferenceID   *string              `json:"referenceID,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	CreatedBy     string               `json:"createdBy"`
}

// ToMovementResponse converts a domain.Movement to MovementResponse DTO
func ToMovementResponse(m *domain.Movement) MovementResponse {
	return MovementResponse{
		MovementID:    m.MovementID,
		AccountID:     m.AccountID,
		Sequence:      m.Sequence,
		Type:          m.Type,
		Amount:        m.Amount,
		BalanceAfter:  m.BalanceAfter,
		Description:   m.Description,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}

// ToListMovementResponse converts a slice of domain.Movement to response DTOs
func ToListMovementResponse(movements []domain.Movement) []MovementResponse {
	res := make([]MovementResponse, len(movements))
	for i, m := range movements {
		res[i] = ToMovementResponse(&m)
	}
	return res
}

// ListMovementsParams defines query parameters for listing an account's movements.
// From and To bound createdAt as a half-open range.
type ListMovementsParams struct {
	Type      *domain.MovementType `form:"type" binding:"omitempty,movement_type"`
	From      *time.Time           `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time           `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit     int                  `form:"limit,default=50" binding:"min=1,max=500"`
	NextToken *string              `form:"nextToken"`
}

// ListMovementsResponse wraps a page of movements and the token for the next one.
type ListMovementsResponse struct {
	Movements []MovementResponse `json:"movements"`
	NextToken *string            `json:"nextToken,omitempty"`
}
