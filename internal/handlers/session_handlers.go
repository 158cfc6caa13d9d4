package handlers

import (
	"errors"
	"net/http"

	"lengolf_pos_backend/internal/services"
	"lengolf_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the table-session side of the payment workflow.
type SessionHandler struct {
	paymentService services.PaymentService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(ps services.PaymentService) *SessionHandler {
	return &SessionHandler{paymentService: ps}
}

// GetPaymentStatus reports settled and outstanding amounts for a session.
func (h *SessionHandler) GetPaymentStatus(c *gin.Context) {
	tableSessionID := c.Param("id")

	status, err := h.paymentService.GetPaymentStatus(tableSessionID)
	if err != nil {
		utils.LogError(err, "GetPaymentStatus: Error from paymentService for session "+tableSessionID)
		if errors.Is(err, services.ErrSessionNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table session not found.", err.Error()))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payment status.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, status)
}

// CloseTableSession closes a session outside the payment pipeline, guarded
// against unpaid orders unless force_close is set.
func (h *SessionHandler) CloseTableSession(c *gin.Context) {
	tableSessionID := c.Param("id")

	var req services.CloseTableSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	err := h.paymentService.CloseTableSession(tableSessionID, req)
	if err != nil {
		utils.LogError(err, "CloseTableSession: Error from paymentService for session "+tableSessionID)
		switch {
		case errors.Is(err, services.ErrCancellationNotAllowed):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Cancellation is a separate workflow; this endpoint only closes paid sessions.", err.Error()))
		case errors.Is(err, services.ErrUnpaidOrders):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table session has unpaid orders. Use force_close to override.", err.Error()))
		case errors.Is(err, services.ErrInvalidStaffPin):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid PIN or inactive staff.", ""))
		case errors.Is(err, services.ErrSessionNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table session not found.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to close table session.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table session closed"})
}
