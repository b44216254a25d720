package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/current_account_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/current_account_ledger/internal/core/ports/services"
	"github.com/SscSPs/current_account_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	openingBalanceDescription = "Opening balance"
)

// accountService is the account lifecycle manager: creation, limit and activation
// changes, and deletion.
type accountService struct {
	BaseService
	accountRepo  portsrepo.AccountRepositoryFacade
	movementRepo portsrepo.MovementReader
	proposer     portssvc.BalanceProposerSvc
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithBalanceProposer sets the engine used to validate opening balances.
func WithBalanceProposer(proposer portssvc.BalanceProposerSvc) AccountServiceOption {
	return func(s *accountService) {
		s.proposer = proposer
	}
}

// WithAccountClock overrides the clock used for audit fields.
func WithAccountClock(now func() time.Time) AccountServiceOption {
	return func(s *accountService) {
		s.now = now
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, movementRepo portsrepo.MovementReader, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
	}
	for _, option := range options {
		option(svc)
	}
	if svc.proposer == nil {
		svc.proposer = NewBalanceEngine(nil, nil)
	}
	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actor string) (*domain.Account, error) {
	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		return nil, fmt.Errorf("%w: ownerID is required", apperrors.ErrValidation)
	}
	if req.CreditLimit.IsNegative() {
		s.LogWarn(ctx, apperrors.ErrInvalidCreditLimit, "Rejected account creation",
			slog.String("owner_id", ownerID),
			slog.String("credit_limit", req.CreditLimit.String()))
		return nil, apperrors.ErrInvalidCreditLimit
	}

	existing, err := s.accountRepo.FindAccountByOwnerID(ctx, ownerID)
	if err == nil {
		s.LogWarn(ctx, apperrors.ErrDuplicateAccount, "Owner already has an account",
			slog.String("owner_id", ownerID),
			slog.String("account_id", existing.AccountID))
		return nil, apperrors.ErrDuplicateAccount
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to look up account by owner", slog.String("owner_id", ownerID))
		return nil, err
	}

	now := s.Now()
	account := domain.Account{
		AccountID:   uuid.NewString(),
		OwnerID:     ownerID,
		OwnerLabel:  strings.TrimSpace(req.OwnerLabel),
		Balance:     decimal.Zero,
		CreditLimit: req.CreditLimit,
		IsActive:    true,
		Version:     1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}

	opening, err := s.openingMovement(account, req.InitialBalance, actor, now)
	if err != nil {
		s.LogWarn(ctx, err, "Rejected opening balance",
			slog.String("owner_id", ownerID),
			slog.String("initial_balance", req.InitialBalance.String()))
		return nil, err
	}
	if opening != nil {
		account.Balance = opening.BalanceAfter
		account.MovementCount = opening.Sequence
	}

	if err := s.accountRepo.SaveAccount(ctx, account, opening); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogWarn(ctx, err, "Owner already has an account", slog.String("owner_id", ownerID))
		} else {
			s.LogError(ctx, err, "Failed to save account", slog.String("account_id", account.AccountID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("owner_id", ownerID),
		slog.String("balance", account.Balance.String()))
	return &account, nil
}

// openingMovement turns a non-zero initial balance into a synthetic adjustment, so the
// replay invariant holds from the first moment. The engine checks it against the limit.
func (s *accountService) openingMovement(account domain.Account, initial decimal.Decimal, actor string, now time.Time) (*domain.Movement, error) {
	if initial.IsZero() {
		return nil, nil
	}

	movementType := domain.Credit
	if initial.IsNegative() {
		movementType = domain.Debit
	}
	amount := initial.Abs()

	balanceAfter, err := s.proposer.ProposeMovement(account, movementType, amount)
	if err != nil {
		return nil, err
	}

	return &domain.Movement{
		MovementID:    uuid.NewString(),
		AccountID:     account.AccountID,
		Sequence:      1,
		Type:          movementType,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		Description:   openingBalanceDescription,
		ReferenceType: domain.ReferenceAdjustment,
		CreatedBy:     actor,
		CreatedAt:     now,
	}, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		}
		return nil, err
	}

	s.LogDebug(ctx, "Account retrieved successfully", slog.String("account_id", account.AccountID))
	return account, nil
}

func (s *accountService) GetAccountByOwnerID(ctx context.Context, ownerID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByOwnerID(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by owner", slog.String("owner_id", ownerID))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts",
			slog.Int("limit", limit),
			slog.Int("offset", offset))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	if accounts == nil {
		return []domain.Account{}, nil
	}

	s.LogDebug(ctx, "Accounts listed successfully", slog.Int("count", len(accounts)))
	return accounts, nil
}

func (s *accountService) HasMovements(ctx context.Context, accountID string) (bool, error) {
	if _, err := s.GetAccountByID(ctx, accountID); err != nil {
		return false, err
	}

	has, err := s.movementRepo.HasMovements(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to check account activity", slog.String("account_id", accountID))
		return false, err
	}
	return has, nil
}

// UpdateCreditLimit only governs future movements; a balance already below the new limit
// stays as it is and is reported through IsOverLimit.
func (s *accountService) UpdateCreditLimit(ctx context.Context, accountID string, newLimit decimal.Decimal, actor string) (*domain.Account, error) {
	if newLimit.IsNegative() {
		s.LogWarn(ctx, apperrors.ErrInvalidCreditLimit, "Rejected credit limit update",
			slog.String("account_id", accountID),
			slog.String("credit_limit", newLimit.String()))
		return nil, apperrors.ErrInvalidCreditLimit
	}

	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updated, err := s.applyUpdate(ctx, account, domain.AccountUpdate{CreditLimit: &newLimit, UpdatedBy: actor, UpdatedAt: s.Now()})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Credit limit updated",
		slog.String("account_id", accountID),
		slog.String("old_limit", account.CreditLimit.String()),
		slog.String("new_limit", newLimit.String()),
		slog.Bool("over_limit", updated.IsOverLimit()))
	return updated, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, actor string) (*domain.Account, error) {
	return s.setActive(ctx, accountID, false, actor)
}

func (s *accountService) ReactivateAccount(ctx context.Context, accountID string, actor string) (*domain.Account, error) {
	return s.setActive(ctx, accountID, true, actor)
}

// setActive is idempotent: an account already in the requested state is returned as is.
func (s *accountService) setActive(ctx context.Context, accountID string, active bool, actor string) (*domain.Account, error) {
	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.IsActive == active {
		s.LogDebug(ctx, "Account already in requested state",
			slog.String("account_id", accountID),
			slog.Bool("is_active", active))
		return account, nil
	}

	updated, err := s.applyUpdate(ctx, account, domain.AccountUpdate{IsActive: &active, UpdatedBy: actor, UpdatedAt: s.Now()})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Account activation changed",
		slog.String("account_id", accountID),
		slog.Bool("is_active", active))
	return updated, nil
}

func (s *accountService) applyUpdate(ctx context.Context, account *domain.Account, update domain.AccountUpdate) (*domain.Account, error) {
	updated, err := s.accountRepo.UpdateAccount(ctx, account.AccountID, update, account.Version)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, err, "Account changed before update could be applied",
				slog.String("account_id", account.AccountID),
				slog.Int64("version", account.Version))
		} else {
			s.LogError(ctx, err, "Failed to update account", slog.String("account_id", account.AccountID))
		}
		return nil, err
	}
	return updated, nil
}

// DeleteAccount only removes clean accounts. The store repeats the activity check
// atomically with the delete, so a movement racing in between still blocks it.
func (s *accountService) DeleteAccount(ctx context.Context, accountID string, actor string) error {
	has, err := s.HasMovements(ctx, accountID)
	if err != nil {
		return err
	}
	if has {
		s.LogWarn(ctx, apperrors.ErrHasActivity, "Refused to delete account with movements",
			slog.String("account_id", accountID))
		return apperrors.ErrHasActivity
	}

	if err := s.accountRepo.DeleteAccount(ctx, accountID); err != nil {
		if errors.Is(err, apperrors.ErrHasActivity) || errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, err, "Account changed before delete", slog.String("account_id", accountID))
		} else {
			s.LogError(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
		}
		return err
	}

	s.LogInfo(ctx, "Account deleted",
		slog.String("account_id", accountID),
		slog.String("deleted_by", actor))
	return nil
}
