package services

import (
	"fmt"

	"lengolf_pos_backend/internal/models"
	"lengolf_pos_backend/pkg/utils"
)

// --- Auth DTOs ---

// LoginRequest is the PIN login payload. Staff identify with a PIN only;
// there are no usernames at the till.
type LoginRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// LoginResponse carries the issued token pair and the resolved staff
// identity for the client UI.
type LoginResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	Staff        *models.StaffMember `json:"staff"`
}

// --- StaffAuthService Interface ---
type StaffAuthService interface {
	// Login verifies a staff PIN and issues a JWT pair.
	Login(req LoginRequest) (*LoginResponse, error)
}

type staffAuthService struct {
	staffResolver StaffResolver
	staffRepo     staffDirectory
}

// staffDirectory is the slice of the staff repository the auth service
// needs: fetching the full record once the PIN has been resolved.
type staffDirectory interface {
	GetStaffByID(staffID int64) (*models.StaffMember, error)
}

// NewStaffAuthService creates a new instance of StaffAuthService. PIN
// verification goes through the resolver so logins share its cache.
func NewStaffAuthService(sr StaffResolver, dir staffDirectory) StaffAuthService {
	return &staffAuthService{staffResolver: sr, staffRepo: dir}
}

func (s *staffAuthService) Login(req LoginRequest) (*LoginResponse, error) {
	staffID, err := s.staffResolver.ResolvePin(req.Pin)
	if err != nil {
		return nil, err
	}

	staff, err := s.staffRepo.GetStaffByID(staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff member %d: %w", staffID, err)
	}

	accessToken, err := utils.GenerateAccessToken(staff.ID, staff.DisplayName, staff.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(staff.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Staff:        staff,
	}, nil
}
