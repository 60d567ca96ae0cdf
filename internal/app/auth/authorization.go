package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
	"github.com/yigit/alumnitrack/internal/pkg/logger"
)

// AuthorizationService checks admin roles against the stored account, not only the token claims
type AuthorizationService struct {
	adminRepo repositories.AdminStore
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(adminRepo repositories.AdminStore) *AuthorizationService {
	return &AuthorizationService{
		adminRepo: adminRepo,
	}
}

// GetAdminInfo returns the active admin account behind adminID
func (s *AuthorizationService) GetAdminInfo(ctx context.Context, adminID int64) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAdminNotFound) {
			return nil, err
		}
		logger.Error().Err(err).Int64("adminID", adminID).Msg("Error getting admin by ID in GetAdminInfo")
		return nil, fmt.Errorf("failed to get admin information: %w", err)
	}
	if !admin.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return admin, nil
}

// IsSuperAdmin checks if the admin currently holds the super admin role
func (s *AuthorizationService) IsSuperAdmin(ctx context.Context, adminID int64) (bool, error) {
	admin, err := s.GetAdminInfo(ctx, adminID)
	if err != nil {
		return false, err
	}
	return admin.Role == models.RoleSuperAdmin, nil
}

// ValidateSuperAdmin returns ErrSuperAdminRequired unless the admin is a super admin
func (s *AuthorizationService) ValidateSuperAdmin(ctx context.Context, adminID int64) error {
	ok, err := s.IsSuperAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrSuperAdminRequired
	}
	return nil
}

// CanModifyAdmin reports whether actor may change the admin account targetID.
// Admins may change only their own account; super admins may change any.
func CanModifyAdmin(actor models.Actor, targetID int64) bool {
	return actor.IsSuperAdmin() || actor.AdminID == targetID
}

// ValidateAdminModification returns ErrPermissionDenied when CanModifyAdmin is false
func ValidateAdminModification(actor models.Actor, targetID int64) error {
	if !CanModifyAdmin(actor, targetID) {
		return apperrors.ErrPermissionDenied
	}
	return nil
}
