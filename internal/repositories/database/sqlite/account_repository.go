package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/SscSPs/current_account_ledger/internal/models"
	"github.com/SscSPs/current_account_ledger/internal/utils/mapping"
)

const accountColumns = `account_id, owner_id, owner_label, balance, credit_limit, is_active, version, movement_count,
		created_at, created_by, last_updated_at, last_updated_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.OwnerID,
		&m.OwnerLabel,
		&m.Balance,
		&m.CreditLimit,
		&m.IsActive,
		&m.Version,
		&m.MovementCount,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

func (s *Store) SaveAccount(ctx context.Context, account domain.Account, opening *domain.Movement) error {
	if opening != nil {
		account.Balance = opening.BalanceAfter
		account.MovementCount = 1
	}
	m := mapping.ToModelAccount(account)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (`+accountColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			m.AccountID, m.OwnerID, m.OwnerLabel, m.Balance, m.CreditLimit, m.IsActive,
			m.Version, m.MovementCount, m.CreatedAt.UTC(), m.CreatedBy, m.LastUpdatedAt.UTC(), m.LastUpdatedBy,
		)
		if err != nil {
			if mapped := mapConstraintError(err, m.AccountID); mapped != nil {
				return mapped
			}
			return fmt.Errorf("failed to save account %s: %w", m.AccountID, err)
		}

		if opening != nil {
			mv := *opening
			mv.AccountID = account.AccountID
			mv.Sequence = 1
			if err := insertMovement(ctx, tx, mv); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := scanAccount(s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ?;`, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return &acc, nil
}

func (s *Store) FindAccountByOwnerID(ctx context.Context, ownerID string) (*domain.Account, error) {
	acc, err := scanAccount(s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id = ?;`, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account for owner %s: %w", ownerID, err)
	}
	return &acc, nil
}

func (s *Store) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at, account_id
		LIMIT ? OFFSET ?;`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// UpdateAccount reads, applies and writes back inside one immediate transaction, so the
// version compare and the write cannot interleave with another writer.
func (s *Store) UpdateAccount(ctx context.Context, accountID string, update domain.AccountUpdate, expectedVersion int64) (*domain.Account, error) {
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}

	var updated domain.Account
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ?;`, accountID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to load account %s: %w", accountID, err)
		}
		if current.Version != expectedVersion {
			return apperrors.ErrConflict
		}

		updated = update.Apply(current)
		updated.Version = current.Version + 1
		m := mapping.ToModelAccount(updated)
		_, err = tx.ExecContext(ctx, `
			UPDATE accounts
			SET owner_label = ?, credit_limit = ?, is_active = ?, version = ?, last_updated_at = ?, last_updated_by = ?
			WHERE account_id = ? AND version = ?;`,
			m.OwnerLabel, m.CreditLimit, m.IsActive, m.Version, m.LastUpdatedAt.UTC(), m.LastUpdatedBy,
			accountID, expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update account %s: %w", accountID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE account_id = ? AND movement_count = 0;`, accountID)
		if err != nil {
			return fmt.Errorf("failed to delete account %s: %w", accountID, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return nil
		}

		exists, err := accountExists(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return apperrors.ErrHasActivity
	})
}
