package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/current_account_ledger/internal/core/ports/services"
	"github.com/SscSPs/current_account_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// balanceEngine is the sole authority on whether a movement may be committed, and
// validates the denormalized balance against the movement log.
type balanceEngine struct {
	BaseService
	accountRepo  portsrepo.AccountReader
	movementRepo portsrepo.MovementReader
	pageSize     int
}

// BalanceEngineOption is a functional option for configuring the balance engine
type BalanceEngineOption func(*balanceEngine)

// WithReplayPageSize sets how many movements are fetched per page during replay.
func WithReplayPageSize(size int) BalanceEngineOption {
	return func(e *balanceEngine) {
		if size > 0 {
			e.pageSize = size
		}
	}
}

// WithBalanceEngineClock overrides the clock used for report timestamps.
func WithBalanceEngineClock(now func() time.Time) BalanceEngineOption {
	return func(e *balanceEngine) {
		e.now = now
	}
}

// NewBalanceEngine creates the balance engine. ProposeMovement never touches the
// repositories, so they may be nil when only proposals are needed.
func NewBalanceEngine(accountRepo portsrepo.AccountReader, movementRepo portsrepo.MovementReader, options ...BalanceEngineOption) portssvc.BalanceEngineSvc {
	e := &balanceEngine{
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		pageSize:     defaultReplayPageSize,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

var _ portssvc.BalanceEngineSvc = (*balanceEngine)(nil)

// ProposeMovement computes the balance after the movement or rejects it. The credit
// limit check is strict: landing exactly on -creditLimit is allowed.
func (e *balanceEngine) ProposeMovement(account domain.Account, movementType domain.MovementType, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.ErrInvalidAmount
	}
	if !account.IsActive {
		return decimal.Zero, apperrors.ErrAccountInactive
	}

	var delta decimal.Decimal
	switch movementType {
	case domain.Credit:
		delta = amount
	case domain.Debit:
		delta = amount.Neg()
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown movement type %q", apperrors.ErrValidation, movementType)
	}

	candidate := account.Balance.Add(delta)
	if movementType == domain.Debit && candidate.LessThan(account.CreditLimit.Neg()) {
		return decimal.Zero, fmt.Errorf("%w: balance would be %s, limit is %s",
			apperrors.ErrCreditLimitExceeded, candidate.String(), account.CreditLimit.Neg().String())
	}
	return candidate, nil
}

// RecomputeBalance replays all committed movements of the account.
func (e *balanceEngine) RecomputeBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if _, err := e.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			e.LogError(ctx, err, "Failed to find account for balance replay", slog.String("account_id", accountID))
		}
		return decimal.Zero, err
	}

	result, err := e.replay(ctx, accountID, replayAll)
	if err != nil {
		e.LogError(ctx, err, "Failed to replay movements", slog.String("account_id", accountID))
		return decimal.Zero, err
	}
	return result.balance, nil
}

// Reconcile compares the stored balance with the replayed log. Only movements up to the
// account snapshot's MovementCount are replayed, so concurrent appends cannot produce a
// false drift.
func (e *balanceEngine) Reconcile(ctx context.Context, accountID string) (*domain.ReconciliationReport, error) {
	account, err := e.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			e.LogError(ctx, err, "Failed to find account for reconciliation", slog.String("account_id", accountID))
		}
		return nil, err
	}

	result, err := e.replay(ctx, accountID, account.MovementCount)
	if err != nil {
		e.LogError(ctx, err, "Failed to replay movements", slog.String("account_id", accountID))
		return nil, err
	}

	report := &domain.ReconciliationReport{
		AccountID:             account.AccountID,
		StoredBalance:         account.Balance,
		DerivedBalance:        result.balance,
		Drift:                 account.Balance.Sub(result.balance),
		MovementCount:         result.count,
		ExpectedMovementCount: account.MovementCount,
		CreditLimit:           account.CreditLimit,
		OverLimit:             account.IsOverLimit(),
		CheckedAt:             e.Now(),
		BrokenAtSequence:      result.brokenAt,
	}
	if report.BrokenAtSequence == 0 && result.count < account.MovementCount {
		// Trailing movements are missing from the log.
		report.BrokenAtSequence = result.count + 1
	}
	if result.brokenErr != nil {
		e.LogWarn(ctx, result.brokenErr, "Running balance chain is broken",
			slog.String("account_id", accountID),
			slog.Int64("sequence", result.brokenAt))
	}
	if result.count != account.MovementCount {
		e.LogWarn(ctx, errors.New("movement count mismatch"), "Movement log does not match account counter",
			slog.String("account_id", accountID),
			slog.Int64("expected", account.MovementCount),
			slog.Int64("replayed", result.count))
	}

	e.LogDebug(ctx, "Account reconciled",
		slog.String("account_id", accountID),
		slog.String("stored", report.StoredBalance.String()),
		slog.String("derived", report.DerivedBalance.String()))
	return report, nil
}

const replayAll = -1

type replayResult struct {
	balance   decimal.Decimal
	count     int64
	brokenAt  int64 // first missing sequence or first BalanceAfter that disagrees, zero if none
	brokenErr error
}

// replay sums signed amounts in canonical order, stopping after sequence upTo unless
// upTo is replayAll. A sequence gap or broken running-balance link is recorded but does
// not stop the replay.
func (e *balanceEngine) replay(ctx context.Context, accountID string, upTo int64) (replayResult, error) {
	result := replayResult{balance: decimal.Zero}
	for m, err := range IterateMovements(ctx, e.movementRepo, accountID, domain.MovementFilter{}, e.pageSize) {
		if err != nil {
			return replayResult{}, err
		}
		if upTo != replayAll && m.Sequence > upTo {
			break
		}

		if m.Sequence != result.count+1 && result.brokenAt == 0 {
			result.brokenAt = result.count + 1
			result.brokenErr = fmt.Errorf("movement sequence %d missing, found %d", result.count+1, m.Sequence)
		}
		next, linkErr := accounting.ApplyToRunningBalance(result.balance, m)
		if linkErr != nil && result.brokenAt == 0 {
			result.brokenAt = m.Sequence
			result.brokenErr = linkErr
		}
		result.balance = next
		result.count++
	}
	return result, nil
}
