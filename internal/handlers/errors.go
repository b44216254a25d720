package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/current_account_ledger/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// statusForKind maps ledger error kinds onto HTTP status codes.
var statusForKind = map[string]int{
	apperrors.KindInvalidAmount:          http.StatusBadRequest,
	apperrors.KindInvalidDescription:     http.StatusBadRequest,
	apperrors.KindInvalidCreditLimit:     http.StatusBadRequest,
	apperrors.KindValidation:             http.StatusBadRequest,
	apperrors.KindNotFound:               http.StatusNotFound,
	apperrors.KindDuplicateAccount:       http.StatusConflict,
	apperrors.KindDuplicate:              http.StatusConflict,
	apperrors.KindHasActivity:            http.StatusConflict,
	apperrors.KindConflict:               http.StatusConflict,
	apperrors.KindConcurrentUpdateFailed: http.StatusConflict,
	apperrors.KindAccountInactive:        http.StatusUnprocessableEntity,
	apperrors.KindCreditLimitExceeded:    http.StatusUnprocessableEntity,
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError writes err as an ErrorResponse. Unrecognised errors are logged and
// answered with fallbackMsg so internals never leak to callers.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallbackMsg string) {
	kind := apperrors.KindOf(err)
	status, known := statusForKind[kind]
	if !known {
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallbackMsg, Code: apperrors.KindInternal})
		return
	}

	logger.Warn("Request rejected", slog.String("code", kind), slog.String("error", err.Error()))
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: kind})
}

// respondBindError answers malformed input that never reached a service.
func respondBindError(c *gin.Context, logger *slog.Logger, err error, what string) {
	logger.Warn("Failed to bind "+what, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + what + ": " + err.Error(), Code: apperrors.KindValidation})
}
