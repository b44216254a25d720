package memory_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/current_account_ledger/internal/core/ports/services"
	"github.com/SscSPs/current_account_ledger/internal/core/services"
	"github.com/SscSPs/current_account_ledger/internal/dto"
	"github.com/SscSPs/current_account_ledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newAccount(id, owner string, created time.Time) domain.Account {
	return domain.Account{
		AccountID:   id,
		OwnerID:     owner,
		CreditLimit: dec("100"),
		IsActive:    true,
		Version:     1,
		AuditFields: domain.AuditFields{CreatedAt: created, CreatedBy: "test"},
	}
}

func movement(typ domain.MovementType, amount string) domain.Movement {
	return domain.Movement{
		MovementID:    "m-" + amount,
		Type:          typ,
		Amount:        dec(amount),
		Description:   "test",
		ReferenceType: domain.ReferenceSale,
		CreatedAt:     time.Now().UTC(),
	}
}

// --- Store contract ---

func TestStore_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveAccount(ctx, newAccount("a1", "CLI-1", time.Now()), nil))

	byID, err := store.FindAccountByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "CLI-1", byID.OwnerID)

	byOwner, err := store.FindAccountByOwnerID(ctx, "CLI-1")
	require.NoError(t, err)
	assert.Equal(t, "a1", byOwner.AccountID)

	_, err = store.FindAccountByID(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = store.SaveAccount(ctx, newAccount("a2", "CLI-1", time.Now()), nil)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateAccount)

	// Returned accounts are copies.
	byID.Balance = dec("999")
	again, _ := store.FindAccountByID(ctx, "a1")
	assert.True(t, again.Balance.IsZero())
}

func TestStore_SaveWithOpeningMovement(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	opening := movement(domain.Credit, "40")
	opening.BalanceAfter = dec("40")

	require.NoError(t, store.SaveAccount(ctx, newAccount("a1", "CLI-1", time.Now()), &opening))

	acc, err := store.FindAccountByID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(dec("40")))
	assert.Equal(t, int64(1), acc.MovementCount)

	has, err := store.HasMovements(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStore_AppendAssignsSequenceAndBumpsVersion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveAccount(ctx, newAccount("a1", "CLI-1", time.Now()), nil))

	m1, err := store.AppendMovementAndUpdateBalance(ctx, "a1", movement(domain.Credit, "10"), dec("10"), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m1.Sequence)
	assert.True(t, m1.BalanceAfter.Equal(dec("10")))

	m2, err := store.AppendMovementAndUpdateBalance(ctx, "a1", movement(domain.Debit, "3"), dec("7"), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m2.Sequence)

	acc, _ := store.FindAccountByID(ctx, "a1")
	assert.Equal(t, int64(3), acc.Version)
	assert.Equal(t, int64(2), acc.MovementCount)
	assert.True(t, acc.Balance.Equal(dec("7")))
}

func TestStore_AppendRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveAccount(ctx, newAccount("a1", "CLI-1", time.Now()), nil))
	_, err := store.AppendMovementAndUpdateBalance(ctx, "a1", movement(domain.Credit, "10"), dec("10"), 1)
	require.NoError(t, err)

	_, err = store.AppendMovementAndUpdateBalance(ctx, "a1", movement(domain.Credit, "5"), dec("5"), 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = store.AppendMovementAndUpdateBalance(ctx, "missing", movement(domain.Credit, "5"), dec("5"), 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	acc, _ := store.FindAccountByID(ctx, "a1")
	assert.Equal(t, int64(1), acc.MovementCount)
}

func TestStore_AppendHonoursCancelledContext(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SaveAccount(context.Background(), newAccount("a1", "CLI-1", time.Now()), nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.AppendMovementAndUpdateBalance(ctx, "a1", movement(domain.Credit, "5"), dec("5"), 1)
	assert.ErrorIs(t, err, context.Canceled)

	has, _ := store.HasMovements(context.Background(), "a1")
	assert.False(t, has)
}

func TestStore_UpdateAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveAccount(ctx, newAccount("a1", "CLI-1", time.Now()), nil))

	off := false
	updated, err := store.UpdateAccount(ctx, "a1", domain.AccountUpdate{IsActive: &off, UpdatedBy: "ops"}, 1)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "ops", updated.LastUpdatedBy)

	_, err = store.UpdateAccount(ctx, "a1", domain.AccountUpdate{IsActive: &off}, 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestStore_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveAccount(ctx, newAccount("a1", "CLI-1", time.Now()), nil))
	require.NoError(t, store.SaveAccount(ctx, newAccount("a2", "CLI-2", time.Now()), nil))
	_, err := store.AppendMovementAndUpdateBalance(ctx, "a2", movement(domain.Credit, "1"), dec("1"), 1)
	require.NoError(t, err)

	require.NoError(t, store.DeleteAccount(ctx, "a1"))
	_, err = store.FindAccountByID(ctx, "a1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = store.FindAccountByOwnerID(ctx, "CLI-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, store.DeleteAccount(ctx, "a2"), apperrors.ErrHasActivity)
	assert.ErrorIs(t, store.DeleteAccount(ctx, "a1"), apperrors.ErrNotFound)

	// The owner is free again after deletion.
	assert.NoError(t, store.SaveAccount(ctx, newAccount("a3", "CLI-1", time.Now()), nil))
}

func TestStore_ListAccountsOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveAccount(ctx, newAccount("c", "o3", base.Add(2*time.Hour)), nil))
	require.NoError(t, store.SaveAccount(ctx, newAccount("a", "o1", base), nil))
	require.NoError(t, store.SaveAccount(ctx, newAccount("b", "o2", base.Add(time.Hour)), nil))

	page, err := store.ListAccounts(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].AccountID)
	assert.Equal(t, "b", page[1].AccountID)

	page, err = store.ListAccounts(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].AccountID)

	page, err = store.ListAccounts(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestStore_ListMovementsFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveAccount(ctx, newAccount("a1", "CLI-1", time.Now()), nil))

	balance := decimal.Zero
	for i, typ := range []domain.MovementType{domain.Credit, domain.Debit, domain.Credit, domain.Debit, domain.Credit} {
		m := movement(typ, "1")
		balance = balance.Add(m.SignedAmount())
		_, err := store.AppendMovementAndUpdateBalance(ctx, "a1", m, balance, int64(i+1))
		require.NoError(t, err)
	}

	credit := domain.Credit
	page, err := store.ListMovementsByAccountID(ctx, "a1", domain.MovementFilter{Type: &credit}, domain.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Movements, 2)
	assert.Equal(t, []int64{1, 3}, []int64{page.Movements[0].Sequence, page.Movements[1].Sequence})
	assert.True(t, page.HasMore)

	page, err = store.ListMovementsByAccountID(ctx, "a1", domain.MovementFilter{Type: &credit}, domain.PageRequest{AfterSequence: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Movements, 1)
	assert.Equal(t, int64(5), page.Movements[0].Sequence)
	assert.False(t, page.HasMore)

	// Restartable: the same request yields the same page.
	again, err := store.ListMovementsByAccountID(ctx, "a1", domain.MovementFilter{Type: &credit}, domain.PageRequest{AfterSequence: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, page, again)

	future := time.Now().Add(time.Hour)
	page, err = store.ListMovementsByAccountID(ctx, "a1", domain.MovementFilter{From: &future}, domain.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Movements)
}

// --- Ledger behaviour through the services ---

type ledger struct {
	store     *memory.Store
	engine    portssvc.BalanceEngineSvc
	accounts  portssvc.AccountSvcFacade
	movements portssvc.MovementSvcFacade
}

func newLedger(maxAttempts int) ledger {
	store := memory.NewStore()
	engine := services.NewBalanceEngine(store, store, services.WithReplayPageSize(3))
	return ledger{
		store:    store,
		engine:   engine,
		accounts: services.NewAccountService(store, store, services.WithBalanceProposer(engine)),
		movements: services.NewMovementService(store, store,
			services.WithMovementEngine(engine),
			services.WithRetryPolicy(services.RetryPolicy{MaxAttempts: maxAttempts})),
	}
}

func record(typ domain.MovementType, amount string) dto.RecordMovementRequest {
	return dto.RecordMovementRequest{Type: typ, Amount: dec(amount), Description: "test", ReferenceType: domain.ReferenceSale}
}

func TestLedger_SimpleDebitCreditScenario(t *testing.T) {
	ctx := context.Background()
	l := newLedger(5)
	acc, err := l.accounts.CreateAccount(ctx, dto.CreateAccountRequest{OwnerID: "CLI-1", CreditLimit: dec("100000")}, "test")
	require.NoError(t, err)

	_, err = l.movements.RecordMovement(ctx, acc.AccountID, record(domain.Debit, "50000"), "test")
	require.NoError(t, err)
	_, err = l.movements.RecordMovement(ctx, acc.AccountID, record(domain.Credit, "20000"), "test")
	require.NoError(t, err)

	got, _ := l.accounts.GetAccountByID(ctx, acc.AccountID)
	assert.True(t, got.Balance.Equal(dec("-30000")))

	_, err = l.movements.RecordMovement(ctx, acc.AccountID, record(domain.Debit, "80000"), "test")
	assert.ErrorIs(t, err, apperrors.ErrCreditLimitExceeded)

	got, _ = l.accounts.GetAccountByID(ctx, acc.AccountID)
	assert.True(t, got.Balance.Equal(dec("-30000")))
	assert.Equal(t, int64(2), got.MovementCount)
}

func TestLedger_DeletionPrecondition(t *testing.T) {
	ctx := context.Background()
	l := newLedger(5)

	clean, err := l.accounts.CreateAccount(ctx, dto.CreateAccountRequest{OwnerID: "CLI-1"}, "test")
	require.NoError(t, err)
	assert.NoError(t, l.accounts.DeleteAccount(ctx, clean.AccountID, "test"))

	used, err := l.accounts.CreateAccount(ctx, dto.CreateAccountRequest{OwnerID: "CLI-2"}, "test")
	require.NoError(t, err)
	_, err = l.movements.RecordMovement(ctx, used.AccountID, record(domain.Credit, "1"), "test")
	require.NoError(t, err)
	assert.ErrorIs(t, l.accounts.DeleteAccount(ctx, used.AccountID, "test"), apperrors.ErrHasActivity)
}

func TestLedger_DeactivatedAccountKeepsHistory(t *testing.T) {
	ctx := context.Background()
	l := newLedger(5)
	acc, err := l.accounts.CreateAccount(ctx, dto.CreateAccountRequest{OwnerID: "CLI-1", InitialBalance: dec("15")}, "test")
	require.NoError(t, err)
	_, err = l.movements.RecordMovement(ctx, acc.AccountID, record(domain.Debit, "5"), "test")
	require.NoError(t, err)

	before, err := l.movements.ListMovements(ctx, acc.AccountID, dto.ListMovementsParams{})
	require.NoError(t, err)
	require.Len(t, before.Movements, 2)

	_, err = l.accounts.DeactivateAccount(ctx, acc.AccountID, "test")
	require.NoError(t, err)

	_, err = l.movements.RecordMovement(ctx, acc.AccountID, record(domain.Credit, "1"), "test")
	assert.ErrorIs(t, err, apperrors.ErrAccountInactive)

	after, err := l.movements.ListMovements(ctx, acc.AccountID, dto.ListMovementsParams{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLedger_BalanceMatchesReplayForRandomSequences(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 20; run++ {
		l := newLedger(5)
		initial := decimal.New(rng.Int63n(20000)-10000, -2)
		limit := decimal.New(rng.Int63n(5000)+10000, -2)
		acc, err := l.accounts.CreateAccount(ctx, dto.CreateAccountRequest{
			OwnerID: "CLI", CreditLimit: limit, InitialBalance: initial,
		}, "test")
		require.NoError(t, err)

		expected := initial
		for i := 0; i < 40; i++ {
			typ := domain.Credit
			if rng.Intn(3) > 0 {
				typ = domain.Debit
			}
			amount := decimal.New(rng.Int63n(5000)+1, -2)
			m, err := l.movements.RecordMovement(ctx, acc.AccountID, dto.RecordMovementRequest{
				Type: typ, Amount: amount, Description: "rnd", ReferenceType: domain.ReferenceAdjustment,
			}, "test")
			if err != nil {
				require.ErrorIs(t, err, apperrors.ErrCreditLimitExceeded)
				continue
			}
			expected = m.BalanceAfter
		}

		got, err := l.accounts.GetAccountByID(ctx, acc.AccountID)
		require.NoError(t, err)
		replayed, err := l.engine.RecomputeBalance(ctx, acc.AccountID)
		require.NoError(t, err)

		assert.True(t, got.Balance.Equal(expected), "run %d", run)
		assert.True(t, got.Balance.Equal(replayed), "run %d: stored %s replayed %s", run, got.Balance, replayed)
		assert.False(t, got.Balance.LessThan(limit.Neg()), "run %d", run)
	}
}

// N debits that each fit alone but not together: exactly the prefix that fits commits.
func TestLedger_ConcurrentDebitsNeverOverCommit(t *testing.T) {
	ctx := context.Background()
	const workers = 20
	l := newLedger(workers + 5)
	acc, err := l.accounts.CreateAccount(ctx, dto.CreateAccountRequest{OwnerID: "CLI-1", CreditLimit: dec("1000")}, "test")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
		rejected  int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := l.movements.RecordMovement(ctx, acc.AccountID, record(domain.Debit, "150"), "test")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case assert.ErrorIs(t, err, apperrors.ErrCreditLimitExceeded):
				rejected++
			}
		}()
	}
	close(start)
	wg.Wait()

	// floor(1000 / 150) = 6
	assert.Equal(t, 6, committed)
	assert.Equal(t, workers-6, rejected)

	got, _ := l.accounts.GetAccountByID(ctx, acc.AccountID)
	assert.True(t, got.Balance.Equal(dec("-900")))
	replayed, err := l.engine.RecomputeBalance(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.True(t, replayed.Equal(got.Balance))
}

func TestLedger_DifferentAccountsCommitIndependently(t *testing.T) {
	ctx := context.Background()
	// A writer can lose at most one race per competing commit on its account.
	l := newLedger(30)
	var ids []string
	for _, owner := range []string{"A", "B", "C", "D"} {
		acc, err := l.accounts.CreateAccount(ctx, dto.CreateAccountRequest{OwnerID: owner}, "test")
		require.NoError(t, err)
		ids = append(ids, acc.AccountID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := l.movements.RecordMovement(ctx, id, record(domain.Credit, "2"), "test")
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	for _, id := range ids {
		got, err := l.accounts.GetAccountByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(dec("50")))
		assert.Equal(t, int64(25), got.MovementCount)
	}
}
