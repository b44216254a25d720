package accounting

import (
	"fmt"

	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CalculateSignedAmount applies the sign of a movement to its amount from the account
// holder's point of view: credits raise the balance, debits lower it.
func CalculateSignedAmount(m domain.Movement) (decimal.Decimal, error) {
	switch m.Type {
	case domain.Credit:
		return m.Amount, nil
	case domain.Debit:
		return m.Amount.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown movement type '%s' encountered for movement %s", m.Type, m.MovementID)
	}
}

// ApplyToRunningBalance adds m to previous and checks the result against the
// BalanceAfter recorded on m. The computed balance is returned even when they disagree,
// so callers can keep replaying past a broken link.
func ApplyToRunningBalance(previous decimal.Decimal, m domain.Movement) (decimal.Decimal, error) {
	signed, err := CalculateSignedAmount(m)
	if err != nil {
		return previous, err
	}
	next := previous.Add(signed)
	if !next.Equal(m.BalanceAfter) {
		return next, fmt.Errorf("movement %d records balance %s, replay gives %s", m.Sequence, m.BalanceAfter.String(), next.String())
	}
	return next, nil
}

// ValidateRunningBalances checks that the movements, in canonical order, form an
// unbroken running-balance chain starting from zero.
func ValidateRunningBalances(movements []domain.Movement) error {
	balance := decimal.Zero
	for i, m := range movements {
		if !m.Amount.IsPositive() {
			return fmt.Errorf("movement amount must be positive for movement %d", m.Sequence)
		}
		if want := int64(i + 1); m.Sequence != want {
			return fmt.Errorf("movement log has a gap: expected sequence %d, found %d", want, m.Sequence)
		}

		var err error
		if balance, err = ApplyToRunningBalance(balance, m); err != nil {
			return err
		}
	}
	return nil
}
