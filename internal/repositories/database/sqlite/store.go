package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	"github.com/mattn/go-sqlite3"
)

// Store is a SQLite LedgerStore over database/sql. SQLite admits one writer at a time,
// so commits are serialized by the database itself; the version check still rejects
// stale snapshots exactly as the other stores do.
type Store struct {
	db *sql.DB
}

var _ portsrepo.LedgerStore = (*Store)(nil)

// NewLedgerStore wraps an open handle, see database.OpenSQLite. Closing the store closes db.
func NewLedgerStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction, committing only if fn succeeds and ctx is still live.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func accountExists(ctx context.Context, q rowQuerier, accountID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE account_id = ?)`, accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account %s: %w", accountID, err)
	}
	return exists, nil
}

// mapConstraintError turns a unique violation into the matching ledger error.
func mapConstraintError(err error, accountID string) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return nil
	}
	if strings.Contains(sqliteErr.Error(), "accounts.owner_id") {
		return apperrors.ErrDuplicateAccount
	}
	return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, accountID)
}
