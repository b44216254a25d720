package mapping

import (
	"database/sql"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/SscSPs/current_account_ledger/internal/models"
)

// ToModelMovement converts a domain Movement to a model Movement
func ToModelMovement(d domain.Movement) models.Movement {
	var ref sql.NullString
	if d.ReferenceID != nil {
		ref = sql.NullString{String: *d.ReferenceID, Valid: true}
	}
	return models.Movement{
		MovementID:    d.MovementID,
		AccountID:     d.AccountID,
		Sequence:      d.Sequence,
		MovementType:  models.MovementType(d.Type),
		Amount:        d.Amount,
		BalanceAfter:  d.BalanceAfter,
		Description:   d.Description,
		ReferenceType: string(d.ReferenceType),
		ReferenceID:   ref,
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
	}
}

// ToDomainMovement converts a model Movement to a domain Movement
func ToDomainMovement(m models.Movement) domain.Movement {
	var ref *string
	if m.ReferenceID.Valid {
		s := m.ReferenceID.String
		ref = &s
	}
	return domain.Movement{
		MovementID:    m.MovementID,
		AccountID:     m.AccountID,
		Sequence:      m.Sequence,
		Type:          domain.MovementType(m.MovementType),
		Amount:        m.Amount,
		BalanceAfter:  m.BalanceAfter,
		Description:   m.Description,
		ReferenceType: domain.ReferenceType(m.ReferenceType),
		ReferenceID:   ref,
		CreatedAt:     m.CreatedAt.UTC(),
		CreatedBy:     m.CreatedBy,
	}
}

// ToDomainMovementSlice converts a slice of model Movements to a slice of domain Movements
func ToDomainMovementSlice(ms []models.Movement) []domain.Movement {
	ds := make([]domain.Movement, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainMovement(m)
	}
	return ds
}
