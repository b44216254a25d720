package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// accountEntry holds one account and its movement log. Its mutex serializes commits to
// that account only.
type accountEntry struct {
	mu        sync.Mutex
	account   domain.Account
	movements []domain.Movement
	deleted   bool
}

// Store is an in-process LedgerStore. The map lock is held only to look up, insert or
// remove entries, so commits to different accounts never wait on each other.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*accountEntry
	owners   map[string]string // ownerID -> accountID
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*accountEntry),
		owners:   make(map[string]string),
	}
}

var _ portsrepo.LedgerStore = (*Store)(nil)

func (s *Store) entry(accountID string) (*accountEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.accounts[accountID]
	return e, ok
}

// --- AccountReader ---

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	e, ok := s.entry(accountID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, apperrors.ErrNotFound
	}
	acc := e.account
	return &acc, nil
}

func (s *Store) FindAccountByOwnerID(ctx context.Context, ownerID string) (*domain.Account, error) {
	s.mu.RLock()
	accountID, ok := s.owners[ownerID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s.FindAccountByID(ctx, accountID)
}

func (s *Store) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	s.mu.RLock()
	entries := make([]*accountEntry, 0, len(s.accounts))
	for _, e := range s.accounts {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	snapshot := make([]domain.Account, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			snapshot = append(snapshot, e.account)
		}
		e.mu.Unlock()
	}

	slices.SortFunc(snapshot, func(a, b domain.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.AccountID, b.AccountID)
	})

	if offset >= len(snapshot) {
		return []domain.Account{}, nil
	}
	end := len(snapshot)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return snapshot[offset:end], nil
}

// --- AccountWriter ---

func (s *Store) SaveAccount(ctx context.Context, account domain.Account, opening *domain.Movement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.owners[account.OwnerID]; taken {
		return apperrors.ErrDuplicateAccount
	}
	if _, taken := s.accounts[account.AccountID]; taken {
		return apperrors.ErrDuplicate
	}

	e := &accountEntry{account: account}
	if opening != nil {
		m := cloneMovement(*opening)
		m.AccountID = account.AccountID
		m.Sequence = 1
		e.movements = append(e.movements, m)
		e.account.MovementCount = 1
		e.account.Balance = m.BalanceAfter
	}

	s.accounts[account.AccountID] = e
	s.owners[account.OwnerID] = account.AccountID
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, accountID string, update domain.AccountUpdate, expectedVersion int64) (*domain.Account, error) {
	e, ok := s.entry(accountID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, apperrors.ErrNotFound
	}
	if e.account.Version != expectedVersion {
		return nil, apperrors.ErrConflict
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	updated := update.Apply(e.account)
	updated.Version++
	e.account = updated
	return &updated, nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.movements) > 0 {
		return apperrors.ErrHasActivity
	}
	e.deleted = true
	delete(s.accounts, accountID)
	delete(s.owners, e.account.OwnerID)
	return nil
}

// --- MovementReader ---

func (s *Store) ListMovementsByAccountID(ctx context.Context, accountID string, filter domain.MovementFilter, page domain.PageRequest) (*domain.MovementPage, error) {
	e, ok := s.entry(accountID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, apperrors.ErrNotFound
	}

	result := &domain.MovementPage{Movements: []domain.Movement{}}
	// Sequences are dense and 1-based, so the cursor is also a slice index.
	start := max(page.AfterSequence, 0)
	for _, m := range e.movements[min(start, int64(len(e.movements))):] {
		if !filter.Matches(m) {
			continue
		}
		if page.Limit > 0 && len(result.Movements) == page.Limit {
			result.HasMore = true
			break
		}
		result.Movements = append(result.Movements, cloneMovement(m))
	}
	return result, nil
}

func (s *Store) HasMovements(ctx context.Context, accountID string) (bool, error) {
	e, ok := s.entry(accountID)
	if !ok {
		return false, apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return false, apperrors.ErrNotFound
	}
	return len(e.movements) > 0, nil
}

// --- MovementWriter ---

func (s *Store) AppendMovementAndUpdateBalance(ctx context.Context, accountID string, movement domain.Movement, newBalance decimal.Decimal, expectedVersion int64) (*domain.Movement, error) {
	e, ok := s.entry(accountID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, apperrors.ErrNotFound
	}
	if e.account.Version != expectedVersion {
		return nil, apperrors.ErrConflict
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := cloneMovement(movement)
	m.AccountID = accountID
	m.Sequence = e.account.MovementCount + 1
	m.BalanceAfter = newBalance
	e.movements = append(e.movements, m)

	e.account.Balance = newBalance
	e.account.MovementCount = m.Sequence
	e.account.Version++
	e.account.LastUpdatedAt = m.CreatedAt
	e.account.LastUpdatedBy = m.CreatedBy

	out := cloneMovement(m)
	return &out, nil
}

// --- StoreLifecycle ---

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func cloneMovement(m domain.Movement) domain.Movement {
	if m.ReferenceID != nil {
		ref := *m.ReferenceID
		m.ReferenceID = &ref
	}
	return m
}
