package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	"github.com/SscSPs/current_account_ledger/internal/models"
	"github.com/SscSPs/current_account_ledger/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const movementColumns = `movement_id, account_id, sequence, movement_type, amount, balance_after, description,
		reference_type, reference_id, created_at, created_by`

func insertMovement(ctx context.Context, tx *sql.Tx, movement domain.Movement) error {
	m := mapping.ToModelMovement(movement)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO movements (`+movementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		m.MovementID, m.AccountID, m.Sequence, string(m.MovementType), m.Amount, m.BalanceAfter,
		m.Description, m.ReferenceType, m.ReferenceID, m.CreatedAt.UTC(), m.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert movement %s: %w", m.MovementID, err)
	}
	return nil
}

func scanMovement(row rowScanner) (domain.Movement, error) {
	var m models.Movement
	err := row.Scan(
		&m.MovementID,
		&m.AccountID,
		&m.Sequence,
		&m.MovementType,
		&m.Amount,
		&m.BalanceAfter,
		&m.Description,
		&m.ReferenceType,
		&m.ReferenceID,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	if err != nil {
		return domain.Movement{}, err
	}
	return mapping.ToDomainMovement(m), nil
}

func (s *Store) AppendMovementAndUpdateBalance(ctx context.Context, accountID string, movement domain.Movement, newBalance decimal.Decimal, expectedVersion int64) (*domain.Movement, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var sequence int64
		err := tx.QueryRowContext(ctx, `
			UPDATE accounts
			SET balance = ?,
			    version = version + 1,
			    movement_count = movement_count + 1,
			    last_updated_at = ?,
			    last_updated_by = ?
			WHERE account_id = ? AND version = ?
			RETURNING movement_count;`,
			newBalance, movement.CreatedAt.UTC(), movement.CreatedBy, accountID, expectedVersion,
		).Scan(&sequence)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to update balance of account %s: %w", accountID, err)
			}
			exists, err := accountExists(ctx, tx, accountID)
			if err != nil {
				return err
			}
			if !exists {
				return apperrors.ErrNotFound
			}
			return apperrors.ErrConflict
		}

		movement.AccountID = accountID
		movement.Sequence = sequence
		movement.BalanceAfter = newBalance
		return insertMovement(ctx, tx, movement)
	})
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (s *Store) ListMovementsByAccountID(ctx context.Context, accountID string, filter domain.MovementFilter, page domain.PageRequest) (*domain.MovementPage, error) {
	var movementType any
	if filter.Type != nil {
		movementType = string(*filter.Type)
	}
	var from, to any
	if filter.From != nil {
		from = filter.From.UTC()
	}
	if filter.To != nil {
		to = filter.To.UTC()
	}
	// A negative LIMIT means no limit in SQLite.
	limit := -1
	if page.Limit > 0 {
		limit = page.Limit + 1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movementColumns+`
		FROM movements
		WHERE account_id = ?1
		  AND sequence > ?2
		  AND (?3 IS NULL OR movement_type = ?3)
		  AND (?4 IS NULL OR created_at >= ?4)
		  AND (?5 IS NULL OR created_at < ?5)
		ORDER BY sequence
		LIMIT ?6;`,
		accountID, page.AfterSequence, movementType, from, to, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements for account %s: %w", accountID, err)
	}
	defer rows.Close()

	result := &domain.MovementPage{Movements: []domain.Movement{}}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement row: %w", err)
		}
		result.Movements = append(result.Movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movement rows: %w", err)
	}
	rows.Close()

	if page.Limit > 0 && len(result.Movements) > page.Limit {
		result.Movements = result.Movements[:page.Limit]
		result.HasMore = true
	}

	if len(result.Movements) == 0 {
		exists, err := accountExists(ctx, s.db, accountID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.ErrNotFound
		}
	}
	return result, nil
}

func (s *Store) HasMovements(ctx context.Context, accountID string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT movement_count FROM accounts WHERE account_id = ?;`, accountID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperrors.ErrNotFound
		}
		return false, fmt.Errorf("failed to check movements of account %s: %w", accountID, err)
	}
	return count > 0, nil
}
