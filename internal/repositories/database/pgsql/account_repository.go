package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/current_account_ledger/internal/models"
	"github.com/SscSPs/current_account_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, owner_id, owner_label, balance, credit_limit, is_active, version, movement_count,
		created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (domain.Account, error) {
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

// SaveAccount inserts the account and its opening movement in one transaction.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account, opening *domain.Movement) error {
	if opening != nil {
		account.Balance = opening.BalanceAfter
		account.MovementCount = 1
	}
	modelAcc := mapping.ToModelAccount(account)

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		modelAcc.AccountID,
		modelAcc.OwnerID,
		modelAcc.OwnerLabel,
		modelAcc.Balance,
		modelAcc.CreditLimit,
		modelAcc.IsActive,
		modelAcc.Version,
		modelAcc.MovementCount,
		modelAcc.CreatedAt,
		modelAcc.CreatedBy,
		modelAcc.LastUpdatedAt,
		modelAcc.LastUpdatedBy,
	)
	if opening != nil {
		m := *opening
		m.AccountID = account.AccountID
		m.Sequence = 1
		queueInsertMovement(batch, mapping.ToModelMovement(m))
	}

	// Close reports the first failing statement of the batch.
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if mapped := mapUniqueViolation(err, modelAcc.AccountID); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to save account %s: %w", modelAcc.AccountID, err)
	}

	return r.Commit(ctx, tx)
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`

	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return &acc, nil
}

// FindAccountByOwnerID retrieves the account of an owner.
func (r *PgxAccountRepository) FindAccountByOwnerID(ctx context.Context, ownerID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1;`

	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account for owner %s: %w", ownerID, err)
	}
	return &acc, nil
}

// ListAccounts retrieves a page of accounts in creation order.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at, account_id
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, limit)
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

// UpdateAccount applies the non-nil fields of update if the version still matches.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, accountID string, update domain.AccountUpdate, expectedVersion int64) (*domain.Account, error) {
	updatedAt := update.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
		UPDATE accounts
		SET owner_label = COALESCE($1, owner_label),
		    credit_limit = COALESCE($2, credit_limit),
		    is_active = COALESCE($3, is_active),
		    version = version + 1,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE account_id = $6 AND version = $7
		RETURNING ` + accountColumns + `;
	`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query,
		update.OwnerLabel,
		update.CreditLimit,
		update.IsActive,
		updatedAt,
		update.UpdatedBy,
		accountID,
		expectedVersion,
	))
	if err == nil {
		return &acc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update account %s: %w", accountID, err)
	}

	exists, err := r.accountExists(ctx, r.Pool, accountID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	return nil, apperrors.ErrConflict
}

// DeleteAccount removes an account only while its movement counter is zero. The check
// and the delete are one statement, so a concurrent append either lands first and blocks
// the delete or finds the account gone.
func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1 AND movement_count = 0;`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	exists, err := r.accountExists(ctx, r.Pool, accountID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrHasActivity
}
