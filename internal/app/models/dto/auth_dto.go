package dto

import (
	"time"

	"github.com/yigit/alumnitrack/internal/app/models"
)

// LoginRequest accepts an email or an employee ID as the identifier
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required" example:"EMP-0042"`
	Password   string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RegisterAdminRequest creates a new admin account
type RegisterAdminRequest struct {
	Email      string           `json:"email" binding:"required,email"`
	Password   string           `json:"password" binding:"required"`
	FullName   string           `json:"fullName" binding:"required,min=2,max=150"`
	EmployeeID string           `json:"employeeId" binding:"required" validate:"employeeid"`
	Department string           `json:"department"`
	Role       models.AdminRole `json:"role" binding:"omitempty,oneof=admin super_admin"`
}

// ChangePasswordRequest changes the caller's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes the password reset flow
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// AdminResponse represents basic admin information
type AdminResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	EmployeeID  string     `json:"employeeId"`
	Department  string     `json:"department,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	Admin AdminResponse `json:"admin"`
}

// FromAdmin converts a models.Admin to an AdminResponse
func FromAdmin(a *models.Admin) AdminResponse {
	resp := AdminResponse{
		ID:          a.ID,
		Email:       a.Email,
		FullName:    a.FullName,
		EmployeeID:  a.EmployeeID,
		Role:        string(a.Role),
		IsActive:    a.IsActive,
		LastLoginAt: a.LastLoginAt,
	}
	if a.Department != nil {
		resp.Department = *a.Department
	}
	return resp
}
