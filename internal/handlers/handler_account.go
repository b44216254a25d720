package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/current_account_ledger/internal/core/ports/services"
	"github.com/SscSPs/current_account_ledger/internal/dto"
	"github.com/SscSPs/current_account_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the account lifecycle.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: as,
	}
}

// registerAccountRoutes registers routes related to accounts. writeLimit guards every
// route that changes state.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade, writeLimit gin.HandlerFunc) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", writeLimit, h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountID", h.getAccount)
		accounts.GET("/:accountID/activity", h.getActivity)
		accounts.PUT("/:accountID/credit-limit", writeLimit, h.updateCreditLimit)
		accounts.POST("/:accountID/deactivate", writeLimit, h.deactivateAccount)
		accounts.POST("/:accountID/reactivate", writeLimit, h.reactivateAccount)
		accounts.DELETE("/:accountID", writeLimit, h.deleteAccount)
	}

	rg.GET("/owners/:ownerID/account", h.getAccountByOwner)
}

// createAccount godoc
// @Summary Open a current account
// @Description Opens the single current account of a client or supplier. A non-zero initial balance is recorded as an opening adjustment.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   X-Actor-ID header string false "Acting user or workflow"
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 409 {object} ErrorResponse "Owner already has an account"
// @Failure 422 {object} ErrorResponse "Opening debit exceeds the credit limit"
// @Failure 500 {object} ErrorResponse "Failed to create account"
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err, "request format")
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger.Info("Received request to create account", slog.String("owner_id", req.OwnerID))

	account, err := h.accountService.CreateAccount(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to create account")
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get an account by ID
// @Description Returns the account with its raw balance, credit limit and available credit
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 500 {object} ErrorResponse "Failed to retrieve account"
// @Router /accounts/{accountID} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", c.Param("accountID")))

	account, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// getAccountByOwner godoc
// @Summary Get the account of an owner
// @Tags accounts
// @Produce  json
// @Param   ownerID path string true "Client or supplier ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse "Owner has no account"
// @Failure 500 {object} ErrorResponse "Failed to retrieve account"
// @Router /owners/{ownerID}/account [get]
func (h *accountHandler) getAccountByOwner(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("owner_id", c.Param("ownerID")))

	account, err := h.accountService.GetAccountByOwnerID(c.Request.Context(), c.Param("ownerID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List accounts
// @Description Lists accounts ordered by creation time
// @Tags accounts
// @Produce  json
// @Param   limit query int false "Limit number of results" default(20)
// @Param   offset query int false "Offset for pagination" default(0)
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 500 {object} ErrorResponse "Failed to list accounts"
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err, "query parameters")
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		respondError(c, logger, err, "Failed to list accounts")
		return
	}

	logger.Debug("Accounts listed", slog.Int("count", len(accounts)))
	c.JSON(http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.ToListAccountResponse(accounts),
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
}

// getActivity godoc
// @Summary Check whether an account has movements
// @Description Deletion precondition check: an account can only be deleted while it has none
// @Tags accounts
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountActivityResponse
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 500 {object} ErrorResponse "Failed to check account activity"
// @Router /accounts/{accountID}/activity [get]
func (h *accountHandler) getActivity(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	has, err := h.accountService.HasMovements(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to check account activity")
		return
	}
	c.JSON(http.StatusOK, dto.AccountActivityResponse{AccountID: accountID, HasMovements: has})
}

// updateCreditLimit godoc
// @Summary Change the credit limit
// @Description Applies to future movements only; an existing debt above the new limit is kept
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   X-Actor-ID header string false "Acting user or workflow"
// @Param   accountID path string true "Account ID"
// @Param   limit body dto.UpdateCreditLimitRequest true "New credit limit"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse "Invalid credit limit"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 409 {object} ErrorResponse "Account changed concurrently"
// @Failure 500 {object} ErrorResponse "Failed to update credit limit"
// @Router /accounts/{accountID}/credit-limit [put]
func (h *accountHandler) updateCreditLimit(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	var req dto.UpdateCreditLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err, "request format")
		return
	}

	account, err := h.accountService.UpdateCreditLimit(c.Request.Context(), accountID, req.CreditLimit, middleware.GetActorFromContext(c))
	if err != nil {
		respondError(c, logger, err, "Failed to update credit limit")
		return
	}

	logger.Info("Credit limit updated", slog.String("credit_limit", account.CreditLimit.String()))
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description The account keeps its history but rejects new movements
// @Tags accounts
// @Produce  json
// @Param   X-Actor-ID header string false "Acting user or workflow"
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 409 {object} ErrorResponse "Account changed concurrently"
// @Failure 500 {object} ErrorResponse "Failed to deactivate account"
// @Router /accounts/{accountID}/deactivate [post]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	h.setActive(c, false)
}

// reactivateAccount godoc
// @Summary Reactivate an account
// @Tags accounts
// @Produce  json
// @Param   X-Actor-ID header string false "Acting user or workflow"
// @Param   accountID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 409 {object} ErrorResponse "Account changed concurrently"
// @Failure 500 {object} ErrorResponse "Failed to reactivate account"
// @Router /accounts/{accountID}/reactivate [post]
func (h *accountHandler) reactivateAccount(c *gin.Context) {
	h.setActive(c, true)
}

func (h *accountHandler) setActive(c *gin.Context, active bool) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))
	actor := middleware.GetActorFromContext(c)

	toggle, action := h.accountService.DeactivateAccount, "deactivate"
	if active {
		toggle, action = h.accountService.ReactivateAccount, "reactivate"
	}

	account, err := toggle(c.Request.Context(), accountID, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to "+action+" account")
		return
	}

	logger.Info("Account status changed", slog.Bool("is_active", account.IsActive))
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// deleteAccount godoc
// @Summary Delete an account
// @Description Hard-deletes an account that never had a movement committed
// @Tags accounts
// @Param   X-Actor-ID header string false "Acting user or workflow"
// @Param   accountID path string true "Account ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 409 {object} ErrorResponse "Account has movements"
// @Failure 500 {object} ErrorResponse "Failed to delete account"
// @Router /accounts/{accountID} [delete]
func (h *accountHandler) deleteAccount(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	if err := h.accountService.DeleteAccount(c.Request.Context(), accountID, middleware.GetActorFromContext(c)); err != nil {
		respondError(c, logger, err, "Failed to delete account")
		return
	}

	logger.Info("Account deleted")
	c.Status(http.StatusNoContent)
}
