package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL LedgerStore. Row-level locks taken by the version-checked
// update serialize commits per account.
type Store struct {
	*PgxAccountRepository
	*PgxMovementRepository
	pool *pgxpool.Pool
}

var _ portsrepo.LedgerStore = (*Store)(nil)

// NewLedgerStore builds the store on an existing pool. Closing the store closes the pool.
func NewLedgerStore(dbPool *pgxpool.Pool) *Store {
	return &Store{
		PgxAccountRepository:  newPgxAccountRepository(dbPool),
		PgxMovementRepository: newPgxMovementRepository(dbPool),
		pool:                  dbPool,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
