package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/SscSPs/current_account_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/current_account_ledger/internal/core/ports/services"
	"github.com/SscSPs/current_account_ledger/internal/core/services"
	"github.com/SscSPs/current_account_ledger/internal/dto"
	"github.com/SscSPs/current_account_ledger/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MovementServiceTestSuite struct {
	suite.Suite
	accounts  *MockAccountRepository
	movements *MockMovementRepository
	service   portssvc.MovementSvcFacade
}

func (suite *MovementServiceTestSuite) SetupTest() {
	suite.accounts = new(MockAccountRepository)
	suite.movements = new(MockMovementRepository)
	suite.service = services.NewMovementService(suite.accounts, suite.movements,
		services.WithRetryPolicy(services.RetryPolicy{MaxAttempts: 3, Backoff: 0}),
		services.WithMovementClock(func() time.Time { return fixedNow }),
	)
}

func saleDebit(amount string) dto.RecordMovementRequest {
	ref := "SALE-1001"
	return dto.RecordMovementRequest{
		Type:          domain.Debit,
		Amount:        dec(amount),
		Description:   "Invoice A-1001",
		ReferenceType: domain.ReferenceSale,
		ReferenceID:   &ref,
	}
}

func (suite *MovementServiceTestSuite) assertNothingCommitted() {
	suite.movements.AssertNotCalled(suite.T(), "AppendMovementAndUpdateBalance",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- RecordMovement ---

func (suite *MovementServiceTestSuite) TestRecordMovement_Success() {
	ctx := context.Background()
	account := activeAccount("0", "100000")
	account.Version = 7
	stored := &domain.Movement{MovementID: "mov-1", AccountID: "acc-1", Sequence: 1, Type: domain.Debit,
		Amount: dec("50000"), BalanceAfter: dec("-50000"), Description: "Invoice A-1001"}

	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil).Once()
	suite.movements.On("AppendMovementAndUpdateBalance", ctx, "acc-1",
		mock.MatchedBy(func(m domain.Movement) bool {
			return m.MovementID != "" && m.AccountID == "acc-1" && m.Type == domain.Debit &&
				m.Amount.Equal(dec("50000")) && m.Description == "Invoice A-1001" &&
				m.ReferenceType == domain.ReferenceSale && m.ReferenceID != nil && *m.ReferenceID == "SALE-1001" &&
				m.CreatedBy == "sales-workflow" && m.CreatedAt.Equal(fixedNow)
		}),
		decimalEq("-50000"), int64(7),
	).Return(stored, nil).Once()

	movement, err := suite.service.RecordMovement(ctx, "acc-1", saleDebit("50000"), "sales-workflow")

	suite.Require().NoError(err)
	suite.Equal(stored, movement)
	suite.accounts.AssertExpectations(suite.T())
	suite.movements.AssertExpectations(suite.T())
}

func (suite *MovementServiceTestSuite) TestRecordMovement_TrimsDescriptionAndBlankReference() {
	ctx := context.Background()
	account := activeAccount("0", "0")
	blank := "   "
	req := dto.RecordMovementRequest{
		Type:          domain.Credit,
		Amount:        dec("10"),
		Description:   "  Manual fix  ",
		ReferenceType: domain.ReferenceAdjustment,
		ReferenceID:   &blank,
	}

	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil).Once()
	suite.movements.On("AppendMovementAndUpdateBalance", ctx, "acc-1",
		mock.MatchedBy(func(m domain.Movement) bool {
			return m.Description == "Manual fix" && m.ReferenceID == nil
		}),
		decimalEq("10"), int64(1),
	).Return(&domain.Movement{Sequence: 1}, nil).Once()

	_, err := suite.service.RecordMovement(ctx, "acc-1", req, "ops")

	suite.Require().NoError(err)
	suite.movements.AssertExpectations(suite.T())
}

func (suite *MovementServiceTestSuite) TestRecordMovement_InputErrorsTouchNothing() {
	ctx := context.Background()

	blank := saleDebit("10")
	blank.Description = " \t "
	_, err := suite.service.RecordMovement(ctx, "acc-1", blank, "ops")
	suite.ErrorIs(err, apperrors.ErrInvalidDescription)

	for _, amount := range []string{"0", "-1"} {
		_, err = suite.service.RecordMovement(ctx, "acc-1", saleDebit(amount), "ops")
		suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	}

	badRef := saleDebit("10")
	badRef.ReferenceType = domain.ReferenceType("GIFT")
	_, err = suite.service.RecordMovement(ctx, "acc-1", badRef, "ops")
	suite.ErrorIs(err, apperrors.ErrValidation)

	badType := saleDebit("10")
	badType.Type = domain.MovementType("SWAP")
	_, err = suite.service.RecordMovement(ctx, "acc-1", badType, "ops")
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.accounts.AssertNotCalled(suite.T(), "FindAccountByID", mock.Anything, mock.Anything)
	suite.assertNothingCommitted()
}

func (suite *MovementServiceTestSuite) TestRecordMovement_RejectionIsIdempotent() {
	ctx := context.Background()
	account := activeAccount("-30000", "100000")
	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil).Twice()

	_, first := suite.service.RecordMovement(ctx, "acc-1", saleDebit("80000"), "ops")
	_, second := suite.service.RecordMovement(ctx, "acc-1", saleDebit("80000"), "ops")

	suite.ErrorIs(first, apperrors.ErrCreditLimitExceeded)
	suite.ErrorIs(second, apperrors.ErrCreditLimitExceeded)
	suite.Equal(first.Error(), second.Error())
	suite.True(account.Balance.Equal(dec("-30000")))
	suite.assertNothingCommitted()
}

func (suite *MovementServiceTestSuite) TestRecordMovement_InactiveAccount() {
	ctx := context.Background()
	account := activeAccount("0", "100")
	account.IsActive = false
	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil).Once()

	_, err := suite.service.RecordMovement(ctx, "acc-1", saleDebit("1"), "ops")

	suite.ErrorIs(err, apperrors.ErrAccountInactive)
	suite.assertNothingCommitted()
}

func (suite *MovementServiceTestSuite) TestRecordMovement_AccountNotFound() {
	ctx := context.Background()
	suite.accounts.On("FindAccountByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.RecordMovement(ctx, "missing", saleDebit("1"), "ops")

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.assertNothingCommitted()
}

func (suite *MovementServiceTestSuite) TestRecordMovement_RetriesOnConflictWithFreshSnapshot() {
	ctx := context.Background()
	stale := activeAccount("0", "100")
	fresh := activeAccount("-60", "100")
	fresh.Version = 2

	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&stale, nil).Once()
	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&fresh, nil).Once()
	suite.movements.On("AppendMovementAndUpdateBalance", ctx, "acc-1", mock.Anything, decimalEq("-30"), int64(1)).
		Return(nil, apperrors.ErrConflict).Once()
	suite.movements.On("AppendMovementAndUpdateBalance", ctx, "acc-1", mock.Anything, decimalEq("-90"), int64(2)).
		Return(&domain.Movement{Sequence: 2, BalanceAfter: dec("-90")}, nil).Once()

	movement, err := suite.service.RecordMovement(ctx, "acc-1", saleDebit("30"), "ops")

	suite.Require().NoError(err)
	suite.Equal(int64(2), movement.Sequence)
	suite.accounts.AssertExpectations(suite.T())
	suite.movements.AssertExpectations(suite.T())
}

func (suite *MovementServiceTestSuite) TestRecordMovement_RetryRevalidatesAgainstLimit() {
	ctx := context.Background()
	stale := activeAccount("0", "100")
	fresh := activeAccount("-80", "100")
	fresh.Version = 2

	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&stale, nil).Once()
	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&fresh, nil).Once()
	suite.movements.On("AppendMovementAndUpdateBalance", ctx, "acc-1", mock.Anything, mock.Anything, int64(1)).
		Return(nil, apperrors.ErrConflict).Once()

	_, err := suite.service.RecordMovement(ctx, "acc-1", saleDebit("30"), "ops")

	suite.ErrorIs(err, apperrors.ErrCreditLimitExceeded)
	suite.movements.AssertNumberOfCalls(suite.T(), "AppendMovementAndUpdateBalance", 1)
}

func (suite *MovementServiceTestSuite) TestRecordMovement_GivesUpAfterMaxAttempts() {
	ctx := context.Background()
	account := activeAccount("0", "100")
	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil).Times(3)
	suite.movements.On("AppendMovementAndUpdateBalance", ctx, "acc-1", mock.Anything, mock.Anything, int64(1)).
		Return(nil, apperrors.ErrConflict).Times(3)

	_, err := suite.service.RecordMovement(ctx, "acc-1", saleDebit("10"), "ops")

	suite.ErrorIs(err, apperrors.ErrConcurrentUpdateFailed)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Equal(apperrors.KindConcurrentUpdateFailed, apperrors.KindOf(err))
	suite.movements.AssertNumberOfCalls(suite.T(), "AppendMovementAndUpdateBalance", 3)
}

func (suite *MovementServiceTestSuite) TestRecordMovement_StoreErrorIsNotRetried() {
	ctx := context.Background()
	account := activeAccount("0", "100")
	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil).Once()
	suite.movements.On("AppendMovementAndUpdateBalance", ctx, "acc-1", mock.Anything, mock.Anything, int64(1)).
		Return(nil, assert.AnError).Once()

	_, err := suite.service.RecordMovement(ctx, "acc-1", saleDebit("10"), "ops")

	suite.ErrorIs(err, assert.AnError)
	suite.movements.AssertNumberOfCalls(suite.T(), "AppendMovementAndUpdateBalance", 1)
}

func (suite *MovementServiceTestSuite) TestRecordMovement_CancelledBeforeCommit() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.service.RecordMovement(ctx, "acc-1", saleDebit("10"), "ops")

	suite.ErrorIs(err, context.Canceled)
	suite.accounts.AssertNotCalled(suite.T(), "FindAccountByID", mock.Anything, mock.Anything)
	suite.assertNothingCommitted()
}

func (suite *MovementServiceTestSuite) TestRecordMovement_CancelledDuringBackoff() {
	svc := services.NewMovementService(suite.accounts, suite.movements,
		services.WithRetryPolicy(services.RetryPolicy{MaxAttempts: 5, Backoff: time.Hour}))
	ctx, cancel := context.WithCancel(context.Background())
	account := activeAccount("0", "100")

	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil).Once()
	suite.movements.On("AppendMovementAndUpdateBalance", ctx, "acc-1", mock.Anything, mock.Anything, int64(1)).
		Return(nil, apperrors.ErrConflict).Once().
		Run(func(mock.Arguments) { cancel() })

	_, err := svc.RecordMovement(ctx, "acc-1", saleDebit("10"), "ops")

	suite.ErrorIs(err, context.Canceled)
	suite.accounts.AssertNumberOfCalls(suite.T(), "FindAccountByID", 1)
}

// --- ListMovements ---

func (suite *MovementServiceTestSuite) TestListMovements_FirstPageWithNextToken() {
	ctx := context.Background()
	account := activeAccount("0", "0")
	debit := domain.Debit
	page := &domain.MovementPage{
		Movements: []domain.Movement{{Sequence: 3, Type: domain.Debit}, {Sequence: 5, Type: domain.Debit}},
		HasMore:   true,
	}

	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil).Once()
	suite.movements.On("ListMovementsByAccountID", ctx, "acc-1",
		domain.MovementFilter{Type: &debit},
		domain.PageRequest{AfterSequence: 0, Limit: 2},
	).Return(page, nil).Once()

	resp, err := suite.service.ListMovements(ctx, "acc-1", dto.ListMovementsParams{Type: &debit, Limit: 2})

	suite.Require().NoError(err)
	suite.Len(resp.Movements, 2)
	suite.Require().NotNil(resp.NextToken)
	accountID, after, err := pagination.DecodeSequenceToken(*resp.NextToken)
	suite.Require().NoError(err)
	suite.Equal("acc-1", accountID)
	suite.Equal(int64(5), after)
}

func (suite *MovementServiceTestSuite) TestListMovements_ResumesFromToken() {
	ctx := context.Background()
	account := activeAccount("0", "0")
	token := pagination.EncodeSequenceToken("acc-1", 5)

	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil).Once()
	suite.movements.On("ListMovementsByAccountID", ctx, "acc-1", domain.MovementFilter{},
		domain.PageRequest{AfterSequence: 5, Limit: 50},
	).Return(&domain.MovementPage{Movements: []domain.Movement{{Sequence: 6}}}, nil).Once()

	resp, err := suite.service.ListMovements(ctx, "acc-1", dto.ListMovementsParams{NextToken: &token})

	suite.Require().NoError(err)
	suite.Len(resp.Movements, 1)
	suite.Nil(resp.NextToken)
	suite.movements.AssertExpectations(suite.T())
}

func (suite *MovementServiceTestSuite) TestListMovements_Validation() {
	ctx := context.Background()
	account := activeAccount("0", "0")
	suite.accounts.On("FindAccountByID", ctx, "acc-1").Return(&account, nil)

	_, err := suite.service.ListMovements(ctx, "acc-1", dto.ListMovementsParams{Limit: 501})
	suite.ErrorIs(err, apperrors.ErrValidation)

	from := fixedNow
	to := fixedNow.Add(-time.Hour)
	_, err = suite.service.ListMovements(ctx, "acc-1", dto.ListMovementsParams{From: &from, To: &to})
	suite.ErrorIs(err, apperrors.ErrValidation)

	foreign := pagination.EncodeSequenceToken("acc-2", 9)
	_, err = suite.service.ListMovements(ctx, "acc-1", dto.ListMovementsParams{NextToken: &foreign})
	suite.ErrorIs(err, apperrors.ErrValidation)

	garbage := "%%%"
	_, err = suite.service.ListMovements(ctx, "acc-1", dto.ListMovementsParams{NextToken: &garbage})
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.movements.AssertNotCalled(suite.T(), "ListMovementsByAccountID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *MovementServiceTestSuite) TestListMovements_AccountNotFound() {
	ctx := context.Background()
	suite.accounts.On("FindAccountByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ListMovements(ctx, "missing", dto.ListMovementsParams{})

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestMovementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MovementServiceTestSuite))
}
