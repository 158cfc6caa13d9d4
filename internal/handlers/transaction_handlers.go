package handlers

import (
	"errors"
	"net/http"

	"lengolf_pos_backend/internal/services"
	"lengolf_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TransactionHandler holds the transaction service.
type TransactionHandler struct {
	transactionService services.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ts services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: ts}
}

// GetTransaction fetches a transaction with its payments and items, e.g.
// for receipt reprint.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transactionID := c.Param("id")

	txn, err := h.transactionService.GetTransaction(transactionID)
	if err != nil {
		utils.LogError(err, "GetTransaction: Error from transactionService for "+transactionID)
		if errors.Is(err, services.ErrTransactionNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Transaction not found.", err.Error()))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch transaction.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, txn)
}

// VoidTransactionItem flags a single transaction line as voided. The acting
// staff member comes from the authenticated session.
func (h *TransactionHandler) VoidTransactionItem(c *gin.Context) {
	transactionID := c.Param("id")
	lineNumber, err := utils.StrToInt64(c.Param("line"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid line number format.", err.Error()))
		return
	}

	var req services.VoidItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	staffIDValue, exists := c.Get("staffID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Staff identity missing from session.", ""))
		return
	}
	staffID, ok := staffIDValue.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Staff identity has unexpected type.", ""))
		return
	}

	err = h.transactionService.VoidTransactionItem(transactionID, int(lineNumber), staffID, req.Reason)
	if err != nil {
		utils.LogError(err, "VoidTransactionItem: Error from transactionService for "+transactionID)
		switch {
		case errors.Is(err, services.ErrVoidValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Void request invalid.", err.Error()))
		case errors.Is(err, services.ErrItemNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Transaction item not found or already voided.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to void transaction item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction item voided"})
}
