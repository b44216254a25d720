package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/current_account_ledger/internal/core/ports/services"
	"github.com/SscSPs/current_account_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type reconciliationHandler struct {
	balanceService portssvc.BalanceReconcilerSvc
}

func registerReconciliationRoutes(rg *gin.RouterGroup, balanceService portssvc.BalanceReconcilerSvc) {
	h := &reconciliationHandler{balanceService: balanceService}
	rg.GET("/accounts/:accountID/reconciliation", h.reconcile)
}

// reconcile godoc
// @Summary Reconcile an account's balance
// @Description Replays the movement log and compares the result with the stored balance
// @Tags reconciliation
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Success 200 {object} domain.ReconciliationReport
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 500 {object} ErrorResponse "Failed to reconcile account"
// @Router /accounts/{accountID}/reconciliation [get]
func (h *reconciliationHandler) reconcile(c *gin.Context) {
	accountID := c.Param("accountID")
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("account_id", accountID))

	report, err := h.balanceService.Reconcile(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile account")
		return
	}
	if !report.InSync() {
		logger.Error("Balance drift detected",
			slog.String("stored", report.StoredBalance.String()),
			slog.String("derived", report.DerivedBalance.String()),
		)
	}
	c.JSON(http.StatusOK, report)
}
