package mapping

import (
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/SscSPs/current_account_ledger/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:     d.AccountID,
		OwnerID:       d.OwnerID,
		OwnerLabel:    d.OwnerLabel,
		Balance:       d.Balance,
		CreditLimit:   d.CreditLimit,
		IsActive:      d.IsActive,
		Version:       d.Version,
		MovementCount: d.MovementCount,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:     m.AccountID,
		OwnerID:       m.OwnerID,
		OwnerLabel:    m.OwnerLabel,
		Balance:       m.Balance,
		CreditLimit:   m.CreditLimit,
		IsActive:      m.IsActive,
		Version:       m.Version,
		MovementCount: m.MovementCount,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}
