package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/current_account_ledger/internal/core/ports/services"
	"github.com/SscSPs/current_account_ledger/internal/dto"
	"github.com/SscSPs/current_account_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// movementHandler serves the single write path of the ledger and its history reads.
type movementHandler struct {
	movementService portssvc.MovementSvcFacade
}

func newMovementHandler(ms portssvc.MovementSvcFacade) *movementHandler {
	return &movementHandler{movementService: ms}
}

func registerMovementRoutes(rg *gin.RouterGroup, movementService portssvc.MovementSvcFacade, writeLimit gin.HandlerFunc) {
	h := newMovementHandler(movementService)

	movements := rg.Group("/accounts/:accountID/movements")
	{
		movements.POST("", writeLimit, h.recordMovement)
		movements.GET("", h.listMovements)
	}
}

// recordMovement godoc
// @Summary Record a movement
// @Description Records a debit or credit against an account. Debits beyond the credit limit are rejected; nothing is written on rejection.
// @Tags movements
// @Accept  json
// @Produce  json
// @Param   X-Actor-ID header string false "Acting user or workflow"
// @Param   accountID path string true "Account ID"
// @Param   movement body dto.RecordMovementRequest true "Movement details"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} ErrorResponse "Invalid amount, description or type"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 409 {object} ErrorResponse "Gave up after repeated concurrent updates"
// @Failure 422 {object} ErrorResponse "Account inactive or credit limit exceeded"
// @Failure 500 {object} ErrorResponse "Failed to record movement"
// @Router /accounts/{accountID}/movements [post]
func (h *movementHandler) recordMovement(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	var req dto.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err, "request format")
		return
	}

	movement, err := h.movementService.RecordMovement(c.Request.Context(), accountID, req, middleware.GetActorFromContext(c))
	if err != nil {
		respondError(c, logger, err, "Failed to record movement")
		return
	}

	logger.Info("Movement recorded",
		slog.String("movement_id", movement.MovementID),
		slog.Int64("sequence", movement.Sequence),
		slog.String("balance_after", movement.BalanceAfter.String()),
	)
	c.JSON(http.StatusCreated, dto.ToMovementResponse(movement))
}

// listMovements godoc
// @Summary List an account's movements
// @Description Returns movements in the order they were committed. Pass nextToken from the previous page to continue.
// @Tags movements
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   type query string false "DEBIT or CREDIT"
// @Param   from query string false "Inclusive lower bound on createdAt (RFC3339)"
// @Param   to query string false "Exclusive upper bound on createdAt (RFC3339)"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListMovementsResponse
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 500 {object} ErrorResponse "Failed to list movements"
// @Router /accounts/{accountID}/movements [get]
func (h *movementHandler) listMovements(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	var params dto.ListMovementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err, "query parameters")
		return
	}

	resp, err := h.movementService.ListMovements(c.Request.Context(), accountID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list movements")
		return
	}
	c.JSON(http.StatusOK, resp)
}
