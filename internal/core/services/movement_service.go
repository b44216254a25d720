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
	"github.com/SscSPs/current_account_ledger/internal/utils/pagination"
	"github.com/google/uuid"
)

const (
	defaultMovementPageSize = 50
	maxMovementPageSize     = 500
)

// RetryPolicy controls how version conflicts on commit are retried. Backoff grows
// linearly with the attempt number.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy is used when no policy is configured.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, Backoff: 10 * time.Millisecond}

type movementService struct {
	BaseService
	accountRepo  portsrepo.AccountReader
	movementRepo portsrepo.MovementRepositoryFacade
	engine       portssvc.BalanceProposerSvc
	retry        RetryPolicy
}

// MovementServiceOption is a functional option for configuring the movement service
type MovementServiceOption func(*movementService)

// WithRetryPolicy overrides the conflict retry policy. Non-positive attempts fall back to one.
func WithRetryPolicy(policy RetryPolicy) MovementServiceOption {
	return func(s *movementService) {
		if policy.MaxAttempts < 1 {
			policy.MaxAttempts = 1
		}
		if policy.Backoff < 0 {
			policy.Backoff = 0
		}
		s.retry = policy
	}
}

// WithMovementEngine sets the balance engine consulted before each commit.
func WithMovementEngine(engine portssvc.BalanceProposerSvc) MovementServiceOption {
	return func(s *movementService) {
		s.engine = engine
	}
}

// WithMovementClock overrides the clock used for CreatedAt.
func WithMovementClock(now func() time.Time) MovementServiceOption {
	return func(s *movementService) {
		s.now = now
	}
}

// NewMovementService creates the movement service, the only write path into the ledger.
func NewMovementService(accountRepo portsrepo.AccountReader, movementRepo portsrepo.MovementRepositoryFacade, options ...MovementServiceOption) portssvc.MovementSvcFacade {
	svc := &movementService{
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		retry:        DefaultRetryPolicy,
	}
	for _, option := range options {
		option(svc)
	}
	if svc.engine == nil {
		svc.engine = NewBalanceEngine(accountRepo, movementRepo)
	}
	return svc
}

var _ portssvc.MovementSvcFacade = (*movementService)(nil)

// RecordMovement validates the request, asks the engine for the new balance and commits
// it against the version it read. A lost race re-reads the account and tries again, so
// every attempt is judged on the latest committed balance.
func (s *movementService) RecordMovement(ctx context.Context, accountID string, req dto.RecordMovementRequest, actor string) (*domain.Movement, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperrors.ErrInvalidDescription
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if !req.ReferenceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown reference type %q", apperrors.ErrValidation, req.ReferenceType)
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown movement type %q", apperrors.ErrValidation, req.Type)
	}

	var referenceID *string
	if req.ReferenceID != nil {
		if trimmed := strings.TrimSpace(*req.ReferenceID); trimmed != "" {
			referenceID = &trimmed
		}
	}

	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if err := s.waitForAttempt(ctx, attempt); err != nil {
			return nil, err
		}

		account, err := s.accountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				s.LogError(ctx, err, "Failed to load account for movement", slog.String("account_id", accountID))
			}
			return nil, err
		}

		newBalance, err := s.engine.ProposeMovement(*account, req.Type, req.Amount)
		if err != nil {
			s.LogWarn(ctx, err, "Movement rejected",
				slog.String("account_id", accountID),
				slog.String("type", string(req.Type)),
				slog.String("amount", req.Amount.String()))
			return nil, err
		}

		movement := domain.Movement{
			MovementID:    uuid.NewString(),
			AccountID:     accountID,
			Type:          req.Type,
			Amount:        req.Amount,
			Description:   description,
			ReferenceType: req.ReferenceType,
			ReferenceID:   referenceID,
			CreatedBy:     actor,
			CreatedAt:     s.Now(),
		}

		committed, err := s.movementRepo.AppendMovementAndUpdateBalance(ctx, accountID, movement, newBalance, account.Version)
		if err == nil {
			s.LogInfo(ctx, "Movement recorded",
				slog.String("account_id", accountID),
				slog.String("movement_id", committed.MovementID),
				slog.Int64("sequence", committed.Sequence),
				slog.String("type", string(committed.Type)),
				slog.String("amount", committed.Amount.String()),
				slog.String("balance_after", committed.BalanceAfter.String()),
				slog.Int("attempt", attempt))
			return committed, nil
		}

		if !errors.Is(err, apperrors.ErrConflict) {
			if !errors.Is(err, apperrors.ErrNotFound) {
				s.LogError(ctx, err, "Failed to commit movement", slog.String("account_id", accountID))
			}
			return nil, err
		}

		s.LogDebug(ctx, "Version conflict on commit, retrying",
			slog.String("account_id", accountID),
			slog.Int64("expected_version", account.Version),
			slog.Int("attempt", attempt))
	}

	err := fmt.Errorf("%w: gave up after %d attempts on account %s",
		apperrors.ErrConcurrentUpdateFailed, s.retry.MaxAttempts, accountID)
	s.LogWarn(ctx, err, "Movement not recorded", slog.String("account_id", accountID))
	return nil, err
}

// waitForAttempt honours cancellation before every attempt and sleeps before retries.
func (s *movementService) waitForAttempt(ctx context.Context, attempt int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if attempt == 1 || s.retry.Backoff <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(attempt-1) * s.retry.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *movementService) ListMovements(ctx context.Context, accountID string, params dto.ListMovementsParams) (*dto.ListMovementsResponse, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account for movement listing", slog.String("account_id", accountID))
		}
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultMovementPageSize
	}
	if limit > maxMovementPageSize {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", apperrors.ErrValidation, maxMovementPageSize)
	}

	if params.From != nil && params.To != nil && !params.From.Before(*params.To) {
		return nil, fmt.Errorf("%w: from must be before to", apperrors.ErrValidation)
	}
	if params.Type != nil && !params.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown movement type %q", apperrors.ErrValidation, *params.Type)
	}

	page := domain.PageRequest{Limit: limit}
	if params.NextToken != nil && *params.NextToken != "" {
		tokenAccountID, afterSequence, err := pagination.DecodeSequenceToken(*params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		if tokenAccountID != accountID {
			return nil, fmt.Errorf("%w: pagination token belongs to another account", apperrors.ErrValidation)
		}
		page.AfterSequence = afterSequence
	}

	filter := domain.MovementFilter{Type: params.Type, From: params.From, To: params.To}
	result, err := s.movementRepo.ListMovementsByAccountID(ctx, accountID, filter, page)
	if err != nil {
		s.LogError(ctx, err, "Failed to list movements", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	resp := &dto.ListMovementsResponse{
		Movements: dto.ToListMovementResponse(result.Movements),
	}
	if result.HasMore && len(result.Movements) > 0 {
		token := pagination.EncodeSequenceToken(accountID, result.Movements[len(result.Movements)-1].Sequence)
		resp.NextToken = &token
	}

	s.LogDebug(ctx, "Movements listed",
		slog.String("account_id", accountID),
		slog.Int("count", len(result.Movements)),
		slog.Bool("has_more", result.HasMore))
	return resp, nil
}
