package handlers

import (
	"errors"
	"net/http"

	"lengolf_pos_backend/internal/services"
	"lengolf_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the staff auth service.
type AuthHandler struct {
	authService services.StaffAuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.StaffAuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles staff PIN login and issues a JWT pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStaffPin) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid PIN or inactive staff.", ""))
			return
		}
		utils.LogError(err, "Login: Error from authService.Login")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to log in.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
