package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationReport compares an account's stored balance with the balance derived by
// replaying its movement log. The raw limit is exposed so callers can apply their own
// over-limit policy.
type ReconciliationReport struct {
	AccountID      string          `json:"accountID"`
	StoredBalance  decimal.Decimal `json:"storedBalance"`
	DerivedBalance decimal.Decimal `json:"derivedBalance"`
	Drift          decimal.Decimal `json:"drift"`
	// MovementCount is the number of movements replayed; ExpectedMovementCount is the
	// account's own counter at the time it was read.
	MovementCount         int64           `json:"movementCount"`
	ExpectedMovementCount int64           `json:"expectedMovementCount"`
	CreditLimit           decimal.Decimal `json:"creditLimit"`
	OverLimit             bool            `json:"overLimit"`
	CheckedAt             time.Time       `json:"checkedAt"`
	// BrokenAtSequence is the first movement that is missing from the log or whose
	// recorded BalanceAfter disagrees with the replay. Zero when the log is intact.
	BrokenAtSequence int64 `json:"brokenAtSequence,omitempty"`
}

// InSync reports whether the stored balance matches the replayed log, no movement is
// missing, and every movement's running balance checks out.
func (r ReconciliationReport) InSync() bool {
	return r.Drift.IsZero() &&
		r.MovementCount == r.ExpectedMovementCount &&
		r.BrokenAtSequence == 0
}

// MarshalJSON adds the computed inSync verdict to the report.
func (r ReconciliationReport) MarshalJSON() ([]byte, error) {
	type report ReconciliationReport
	return json.Marshal(struct {
		report
		InSync bool `json:"inSync"`
	}{report: report(r), InSync: r.InSync()})
}
