package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/alumnitrack/internal/app/auth"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/models/dto"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/db"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
	"github.com/yigit/alumnitrack/internal/pkg/auth"
	"github.com/yigit/alumnitrack/internal/pkg/email"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
	"github.com/yigit/alumnitrack/internal/pkg/validation"
)

// Login failure messages shown to the operator
const (
	MsgAdminNotFound   = "Admin not found. Check your Employee ID."
	MsgAccountDisabled = "Your account has been disabled. Contact your administrator."
	MsgInvalidLogin    = "Invalid credentials"
)

// AuthService handles admin authentication operations
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, actor models.Actor) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string, actor models.Actor) (*dto.TokenResponse, error)
	RegisterAdmin(ctx context.Context, req *dto.RegisterAdminRequest, actor models.Actor) (*dto.AdminResponse, error)
	Me(ctx context.Context, adminID int64) (*dto.AdminResponse, error)
	ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest, actor models.Actor) error
	ForgotPassword(ctx context.Context, emailAddr string) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	EnsureSuperAdmin(ctx context.Context, admin *models.Admin, password string) (bool, error)
}

type authServiceImpl struct {
	tx            db.Transactor
	adminRepo     repositories.AdminStore
	tokenRepo     repositories.TokenStore
	resetRepo     repositories.ResetTokenStore
	authz         *appauth.AuthorizationService
	jwtService    *auth.JWTService
	emailService  email.EmailService
	audit         AuditService
	resetTokenTTL time.Duration
	clock         helpers.Clock
	logger        zerolog.Logger
}

// AuthDeps groups the collaborators of the auth service
type AuthDeps struct {
	Tx            db.Transactor
	AdminRepo     repositories.AdminStore
	TokenRepo     repositories.TokenStore
	ResetRepo     repositories.ResetTokenStore
	JWT           *auth.JWTService
	Email         email.EmailService
	Audit         AuditService
	ResetTokenTTL time.Duration
	Clock         helpers.Clock
}

// NewAuthService creates a new AuthService
func NewAuthService(deps AuthDeps, logger zerolog.Logger) AuthService {
	if deps.ResetTokenTTL <= 0 {
		deps.ResetTokenTTL = time.Hour
	}
	return &authServiceImpl{
		tx:            deps.Tx,
		adminRepo:     deps.AdminRepo,
		tokenRepo:     deps.TokenRepo,
		resetRepo:     deps.ResetRepo,
		authz:         appauth.NewAuthorizationService(deps.AdminRepo),
		jwtService:    deps.JWT,
		emailService:  deps.Email,
		audit:         deps.Audit,
		resetTokenTTL: deps.ResetTokenTTL,
		clock:         deps.Clock,
		logger:        logger,
	}
}

func (s *authServiceImpl) loginFailed(ctx context.Context, actor models.Actor, identifier, reason string, err error) error {
	s.logger.Warn().Str("identifier", identifier).Str("reason", reason).Msg("Admin login failed")
	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionLoginFailed, models.TargetAdmin, actor.AdminID,
		LoginDetails(identifier, false, reason), models.AuditFailed))
	return apperrors.NewCustomError(err, reason)
}

// Login authenticates by email, or by employee ID when the identifier has no @
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest, actor models.Actor) (*dto.AuthResponse, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: enter your Employee ID and Password", apperrors.ErrValidationFailed)
	}

	var (
		admin *models.Admin
		err   error
	)
	byEmployeeID := validation.IsEmployeeIDLogin(identifier)
	if byEmployeeID {
		admin, err = s.adminRepo.GetByEmployeeID(ctx, identifier)
	} else {
		admin, err = s.adminRepo.GetByEmail(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrAdminNotFound) {
			if byEmployeeID {
				return nil, s.loginFailed(ctx, actor, identifier, MsgAdminNotFound, apperrors.ErrInvalidCredentials)
			}
			return nil, s.loginFailed(ctx, actor, identifier, MsgInvalidLogin, apperrors.ErrInvalidCredentials)
		}
		s.logger.Error().Err(err).Str("identifier", identifier).Msg("Failed to look up admin for login")
		return nil, fmt.Errorf("error looking up admin: %w", err)
	}

	actor.AdminID, actor.EmployeeID, actor.Role = admin.ID, admin.EmployeeID, admin.Role
	if !admin.IsActive {
		return nil, s.loginFailed(ctx, actor, identifier, MsgAccountDisabled, apperrors.ErrAccountDisabled)
	}
	if !auth.CheckPassword(admin.Password, req.Password) {
		return nil, s.loginFailed(ctx, actor, identifier, MsgInvalidLogin, apperrors.ErrInvalidCredentials)
	}

	now := s.clock.Now()
	if err := s.adminRepo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("adminID", admin.ID).Msg("Failed to update last login")
	} else {
		admin.LastLoginAt = &now
	}

	token, err := s.generateTokenResponse(ctx, admin, actor)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionLoginSuccess, models.TargetAdmin, admin.ID,
		LoginDetails(identifier, true, ""), models.AuditSuccess))
	s.logger.Info().Int64("adminID", admin.ID).Msg("Admin logged in")
	return &dto.AuthResponse{Token: *token, Admin: dto.FromAdmin(admin)}, nil
}

// RefreshToken rotates a refresh token and issues a new access token
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string, actor models.Actor) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	stored, err := s.tokenRepo.GetByValue(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("token validation error: %w", err)
	}
	if stored.IsRevoked {
		return nil, apperrors.ErrTokenRevoked
	}
	if stored.ExpiresAt.Before(s.clock.Now()) {
		_ = s.tokenRepo.RevokeToken(ctx, refreshToken)
		return nil, apperrors.ErrTokenExpired
	}

	admin, err := s.authz.GetAdminInfo(ctx, stored.AdminID)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}
	return s.generateTokenResponse(ctx, admin, actor)
}

// RegisterAdmin creates an admin account. Only super admins may register admins.
func (s *authServiceImpl) RegisterAdmin(ctx context.Context, req *dto.RegisterAdminRequest, actor models.Actor) (*dto.AdminResponse, error) {
	if err := s.authz.ValidateSuperAdmin(ctx, actor.AdminID); err != nil {
		return nil, err
	}
	if errs := validation.ValidateStruct(req); len(errs) > 0 {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "Invalid admin details").
			WithDetails(toDetails(errs))
	}
	if msg := validation.PasswordStrengthMessage(req.Password); msg != "" {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidPassword, msg)
	}

	role := req.Role
	if role == "" {
		role = models.RoleAdmin
	}
	admin := &models.Admin{
		Email:      strings.TrimSpace(req.Email),
		FullName:   strings.TrimSpace(req.FullName),
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		Department: helpers.NullIfEmpty(req.Department),
		Role:       role,
		IsActive:   true,
	}

	created, err := s.createAdmin(ctx, admin, req.Password)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionAdminCreated, models.TargetAdmin, created.ID,
		fmt.Sprintf("Registered admin. Employee ID: %s, Email: %s", created.EmployeeID, created.Email), models.AuditSuccess))
	if err := s.emailService.SendAdminWelcomeEmail(created.Email, created.FullName, created.EmployeeID); err != nil {
		s.logger.Warn().Err(err).Int64("adminID", created.ID).Msg("Failed to send welcome email")
	}

	resp := dto.FromAdmin(created)
	return &resp, nil
}

func (s *authServiceImpl) createAdmin(ctx context.Context, admin *models.Admin, password string) (*models.Admin, error) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	admin.Password = hashed

	id, err := s.adminRepo.Create(ctx, admin)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEmployeeIDExists):
			return nil, apperrors.NewCustomError(err, "Employee ID already registered")
		case errors.Is(err, apperrors.ErrEmailAlreadyExists):
			return nil, apperrors.NewCustomError(err, "Email already registered")
		}
		s.logger.Error().Err(err).Str("employeeID", admin.EmployeeID).Msg("Failed to create admin")
		return nil, fmt.Errorf("admin creation error: %w", err)
	}
	admin.ID = id
	return admin, nil
}

// EnsureSuperAdmin creates admin as a super admin unless an account with its email or
// employee ID exists. The bool reports whether an account was created.
func (s *authServiceImpl) EnsureSuperAdmin(ctx context.Context, admin *models.Admin, password string) (bool, error) {
	if _, err := s.adminRepo.GetByEmail(ctx, admin.Email); err == nil {
		return false, nil
	} else if !errors.Is(err, apperrors.ErrAdminNotFound) {
		return false, err
	}
	if _, err := s.adminRepo.GetByEmployeeID(ctx, admin.EmployeeID); err == nil {
		return false, nil
	} else if !errors.Is(err, apperrors.ErrAdminNotFound) {
		return false, err
	}

	admin.Role = models.RoleSuperAdmin
	admin.IsActive = true
	if _, err := s.createAdmin(ctx, admin, password); err != nil {
		return false, err
	}
	s.audit.Record(ctx, NewAuditEntry(models.Actor{}, models.ActionAdminCreated, models.TargetAdmin, admin.ID,
		fmt.Sprintf("Seeded super admin. Employee ID: %s, Email: %s", admin.EmployeeID, admin.Email), models.AuditSuccess))
	return true, nil
}

// Me returns the authenticated admin's profile
func (s *authServiceImpl) Me(ctx context.Context, adminID int64) (*dto.AdminResponse, error) {
	admin, err := s.authz.GetAdminInfo(ctx, adminID)
	if err != nil {
		return nil, err
	}
	resp := dto.FromAdmin(admin)
	return &resp, nil
}

// ChangePassword replaces the caller's password and revokes their refresh tokens
func (s *authServiceImpl) ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest, actor models.Actor) error {
	if err := appauth.ValidateAdminModification(actor, actor.AdminID); err != nil {
		return err
	}
	admin, err := s.authz.GetAdminInfo(ctx, actor.AdminID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(admin.Password, req.CurrentPassword) {
		return apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Current password is incorrect")
	}
	if msg := validation.PasswordStrengthMessage(req.NewPassword); msg != "" {
		return apperrors.NewCustomError(apperrors.ErrInvalidPassword, msg)
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.adminRepo.UpdatePassword(ctx, admin.ID, hashed); err != nil {
			return err
		}
		return s.tokenRepo.RevokeAllAdminTokens(ctx, admin.ID)
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("adminID", admin.ID).Msg("Failed to change password")
		return fmt.Errorf("error changing password: %w", err)
	}

	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionPasswordReset, models.TargetAdmin, admin.ID, "Password changed", models.AuditSuccess))
	return nil
}

// ForgotPassword emails a reset link. Unknown emails succeed silently.
func (s *authServiceImpl) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" {
		return fmt.Errorf("%w: enter your email address", apperrors.ErrValidationFailed)
	}

	admin, err := s.adminRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, apperrors.ErrAdminNotFound) {
			s.logger.Info().Str("email", emailAddr).Msg("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("error looking up admin: %w", err)
	}
	if !admin.IsActive {
		s.logger.Info().Int64("adminID", admin.ID).Msg("Password reset requested for disabled account")
		return nil
	}

	token, err := email.GenerateResetToken()
	if err != nil {
		return err
	}
	if err := s.resetRepo.DeleteAdminTokens(ctx, admin.ID); err != nil {
		s.logger.Warn().Err(err).Int64("adminID", admin.ID).Msg("Failed to clear old reset tokens")
	}
	if err := s.resetRepo.CreateToken(ctx, admin.ID, token, s.clock.Now().Add(s.resetTokenTTL)); err != nil {
		return fmt.Errorf("error saving reset token: %w", err)
	}

	if err := s.emailService.SendPasswordResetEmail(admin.Email, admin.FullName, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *authServiceImpl) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	stored, err := s.resetRepo.GetToken(ctx, req.Token)
	if err != nil {
		return err
	}
	if stored.UsedAt != nil {
		return apperrors.ErrPasswordResetTokenUsed
	}
	if stored.ExpiresAt.Before(s.clock.Now()) {
		return apperrors.ErrInvalidPasswordResetToken
	}
	if msg := validation.PasswordStrengthMessage(req.NewPassword); msg != "" {
		return apperrors.NewCustomError(apperrors.ErrInvalidPassword, msg)
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.resetRepo.MarkTokenAsUsed(ctx, req.Token, s.clock.Now()); err != nil {
			return err
		}
		if err := s.adminRepo.UpdatePassword(ctx, stored.AdminID, hashed); err != nil {
			return err
		}
		return s.tokenRepo.RevokeAllAdminTokens(ctx, stored.AdminID)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrPasswordResetTokenUsed) {
			return err
		}
		s.logger.Error().Err(err).Int64("adminID", stored.AdminID).Msg("Failed to reset password")
		return fmt.Errorf("error resetting password: %w", err)
	}

	s.audit.Record(ctx, NewAuditEntry(models.Actor{AdminID: stored.AdminID}, models.ActionPasswordReset, models.TargetAdmin,
		stored.AdminID, "Password reset by email link", models.AuditSuccess))
	return nil
}

// generateTokenResponse issues a token pair and stores the refresh token
func (s *authServiceImpl) generateTokenResponse(ctx context.Context, admin *models.Admin, actor models.Actor) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(admin)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, &models.RefreshToken{
		AdminID:   admin.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: s.jwtService.GetRefreshTokenExpiry(),
		UserAgent: actor.UserAgent,
		IPAddress: actor.IPAddress,
	}); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(pair.ExpiresIn),
		RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
	}, nil
}

func toDetails(errs map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}
