package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/current_account_ledger/internal/models"
	"github.com/SscSPs/current_account_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const movementColumns = `movement_id, account_id, sequence, movement_type, amount, balance_after, description,
		reference_type, reference_id, created_at, created_by`

const insertMovementQuery = `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

type PgxMovementRepository struct {
	BaseRepository
}

// newPgxMovementRepository creates a new repository for the movement log.
func newPgxMovementRepository(pool *pgxpool.Pool) *PgxMovementRepository {
	return &PgxMovementRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.MovementRepositoryFacade = (*PgxMovementRepository)(nil)

func queueInsertMovement(batch *pgx.Batch, m models.Movement) {
	batch.Queue(insertMovementQuery, movementArgs(m)...)
}

func movementArgs(m models.Movement) []any {
	return []any{
		m.MovementID,
		m.AccountID,
		m.Sequence,
		m.MovementType,
		m.Amount,
		m.BalanceAfter,
		m.Description,
		m.ReferenceType,
		m.ReferenceID,
		m.CreatedAt,
		m.CreatedBy,
	}
}

func scanMovement(row pgx.Row) (domain.Movement, error) {
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

// AppendMovementAndUpdateBalance bumps the account row guarded by its version and
// inserts the movement with the sequence that update produced, in one transaction.
func (r *PgxMovementRepository) AppendMovementAndUpdateBalance(ctx context.Context, accountID string, movement domain.Movement, newBalance decimal.Decimal, expectedVersion int64) (*domain.Movement, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	var sequence int64
	err = tx.QueryRow(ctx, `
		UPDATE accounts
		SET balance = $1,
		    version = version + 1,
		    movement_count = movement_count + 1,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE account_id = $4 AND version = $5
		RETURNING movement_count;`,
		newBalance, movement.CreatedAt, movement.CreatedBy, accountID, expectedVersion,
	).Scan(&sequence)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to update balance of account %s: %w", accountID, err)
		}
		exists, err := r.accountExists(ctx, tx, accountID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.ErrConflict
	}

	movement.AccountID = accountID
	movement.Sequence = sequence
	movement.BalanceAfter = newBalance
	if _, err := tx.Exec(ctx, insertMovementQuery, movementArgs(mapping.ToModelMovement(movement))...); err != nil {
		return nil, fmt.Errorf("failed to insert movement %s: %w", movement.MovementID, err)
	}

	// Nothing is visible until commit, so a caller that gave up gets no partial state.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &movement, nil
}

// ListMovementsByAccountID returns one page of the log in sequence order. One extra row
// is fetched to tell whether another page follows.
func (r *PgxMovementRepository) ListMovementsByAccountID(ctx context.Context, accountID string, filter domain.MovementFilter, page domain.PageRequest) (*domain.MovementPage, error) {
	var movementType *string
	if filter.Type != nil {
		t := string(*filter.Type)
		movementType = &t
	}
	var limit *int
	if page.Limit > 0 {
		l := page.Limit + 1
		limit = &l
	}

	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE account_id = $1
		  AND sequence > $2
		  AND ($3::text IS NULL OR movement_type = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at < $5)
		ORDER BY sequence
		LIMIT $6;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, page.AfterSequence, movementType, filter.From, filter.To, limit)
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

	if page.Limit > 0 && len(result.Movements) > page.Limit {
		result.Movements = result.Movements[:page.Limit]
		result.HasMore = true
	}

	if len(result.Movements) == 0 {
		exists, err := r.accountExists(ctx, r.Pool, accountID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.ErrNotFound
		}
	}
	return result, nil
}

// HasMovements reads the account's movement counter.
func (r *PgxMovementRepository) HasMovements(ctx context.Context, accountID string) (bool, error) {
	var count int64
	err := r.Pool.QueryRow(ctx, `SELECT movement_count FROM accounts WHERE account_id = $1;`, accountID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.ErrNotFound
		}
		return false, fmt.Errorf("failed to check movements of account %s: %w", accountID, err)
	}
	return count > 0, nil
}
