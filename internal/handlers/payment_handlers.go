package handlers

import (
	"errors"
	"net/http"

	"lengolf_pos_backend/internal/services"
	"lengolf_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler holds the payment service.
type PaymentHandler struct {
	paymentService services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ps services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// CompletePayment handles a single payment completion against an order or
// table session.
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	var req services.CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.paymentService.CompletePayment(req)
	if err != nil {
		respondPaymentError(c, err, "CompletePayment")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CompleteSplitPayment handles a split payment: named lanes are grouped per
// tender method before completion.
func (h *PaymentHandler) CompleteSplitPayment(c *gin.Context) {
	var req services.CompleteSplitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.paymentService.CompleteSplitPayment(req)
	if err != nil {
		respondPaymentError(c, err, "CompleteSplitPayment")
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondPaymentError maps payment pipeline errors onto the API error
// vocabulary.
func respondPaymentError(c *gin.Context, err error, operation string) {
	utils.LogError(err, operation+": Error from paymentService")
	switch {
	case errors.Is(err, services.ErrNoAllocations),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrAmountMismatch),
		errors.Is(err, services.ErrInvalidSplit),
		errors.Is(err, services.ErrPaymentValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Payment validation failed.", err.Error()))
	case errors.Is(err, services.ErrInvalidStaffPin):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid PIN or inactive staff.", ""))
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrStaffNotFound),
		errors.Is(err, services.ErrNoOrderItems):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Required payment data not found.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to complete payment.", "Internal error"))
	}
}
