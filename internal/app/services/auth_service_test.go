package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/models/dto"
	"github.com/yigit/alumnitrack/internal/app/repositories/mock"
	"github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
	"github.com/yigit/alumnitrack/internal/pkg/auth"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
)

const goodPassword = "Registrar#2025"

type sentMail struct {
	to, token string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeEmail) SendPasswordResetEmail(toEmail, toName, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: toEmail, token: token})
	return nil
}

func (f *fakeEmail) SendAdminWelcomeEmail(toEmail, toName, employeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: toEmail})
	return nil
}

type authFixture struct {
	admins *mock.AdminStore
	tokens *mock.TokenStore
	resets *mock.ResetTokenStore
	mail   *fakeEmail
	audit  *recordingAudit
	clock  *helpers.ManualClock
	svc    services.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		admins: mock.NewAdminStore(),
		tokens: mock.NewTokenStore(),
		resets: mock.NewResetTokenStore(),
		mail:   &fakeEmail{},
		audit:  &recordingAudit{},
		clock:  helpers.NewManualClock(time.Now().UTC()),
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "alumnitrack-test",
	})
	f.svc = services.NewAuthService(services.AuthDeps{
		Tx:        &mock.Transactor{},
		AdminRepo: f.admins,
		TokenRepo: f.tokens,
		ResetRepo: f.resets,
		JWT:       jwtService,
		Email:     f.mail,
		Audit:     f.audit,
		Clock:     f.clock,
	}, zerolog.Nop())
	return f
}

func (f *authFixture) addAdmin(t *testing.T, employeeID, email string, role models.AdminRole) *models.Admin {
	t.Helper()
	hashed, err := auth.HashPassword(goodPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admin := &models.Admin{Email: email, EmployeeID: employeeID, FullName: "Maria Santos", Password: hashed, Role: role, IsActive: true}
	if _, err := f.admins.Create(context.Background(), admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return admin
}

func TestLoginByEmployeeID(t *testing.T) {
	f := newAuthFixture(t)
	admin := f.addAdmin(t, "EMP-0042", "maria@school.edu", models.RoleAdmin)

	resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{Identifier: " EMP-0042 ", Password: goodPassword}, models.Actor{IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Admin.ID != admin.ID || resp.Token.AccessToken == "" || resp.Token.RefreshToken == "" || resp.Admin.LastLoginAt == nil {
		t.Fatalf("unexpected response %+v", resp)
	}

	entry := f.audit.last(t)
	if entry.Action != models.ActionLoginSuccess || entry.Details != "Logged in with identifier: EMP-0042" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
	if entry.AdminID == nil || *entry.AdminID != admin.ID || entry.IPAddress != "10.0.0.1" {
		t.Fatalf("expected admin attribution, got %+v", entry)
	}
}

func TestLoginFailures(t *testing.T) {
	f := newAuthFixture(t)
	disabled := f.addAdmin(t, "EMP-0002", "off@school.edu", models.RoleAdmin)
	f.addAdmin(t, "EMP-0001", "on@school.edu", models.RoleAdmin)
	f.admins.SetActive(disabled.ID, false)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
		wantMsg    string
	}{
		{"unknown employee id", "EMP-9999", goodPassword, apperrors.ErrInvalidCredentials, services.MsgAdminNotFound},
		{"unknown email", "nobody@school.edu", goodPassword, apperrors.ErrInvalidCredentials, services.MsgInvalidLogin},
		{"disabled", "EMP-0002", goodPassword, apperrors.ErrAccountDisabled, services.MsgAccountDisabled},
		{"wrong password", "on@school.edu", "Wrong#2025", apperrors.ErrInvalidCredentials, services.MsgInvalidLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Identifier: tt.identifier, Password: tt.password}, models.Actor{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := apperrors.Message(err); got != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, got)
			}
			entry := f.audit.last(t)
			if entry.Action != models.ActionLoginFailed || entry.Status != models.AuditFailed {
				t.Fatalf("unexpected audit entry %+v", entry)
			}
		})
	}

	if _, err := f.svc.Login(context.Background(), &dto.LoginRequest{Identifier: "EMP-0001"}, models.Actor{}); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected validation error for empty password, got %v", err)
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newAuthFixture(t)
	f.addAdmin(t, "EMP-0042", "maria@school.edu", models.RoleAdmin)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, &dto.LoginRequest{Identifier: "maria@school.edu", Password: goodPassword}, models.Actor{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	next, err := f.svc.RefreshToken(ctx, resp.Token.RefreshToken, models.Actor{})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == resp.Token.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}
	if _, err := f.svc.RefreshToken(ctx, resp.Token.RefreshToken, models.Actor{}); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Fatalf("expected old token revoked, got %v", err)
	}
	if _, err := f.svc.RefreshToken(ctx, "nope", models.Actor{}); !errors.Is(err, apperrors.ErrTokenNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegisterAdminRequiresSuperAdmin(t *testing.T) {
	f := newAuthFixture(t)
	root := f.addAdmin(t, "EMP-0001", "root@school.edu", models.RoleSuperAdmin)
	plain := f.addAdmin(t, "EMP-0002", "plain@school.edu", models.RoleAdmin)
	ctx := context.Background()

	req := &dto.RegisterAdminRequest{Email: "new@school.edu", Password: goodPassword, FullName: "New Admin", EmployeeID: "EMP-0003"}
	if _, err := f.svc.RegisterAdmin(ctx, req, models.Actor{AdminID: plain.ID, Role: models.RoleAdmin}); !errors.Is(err, apperrors.ErrSuperAdminRequired) {
		t.Fatalf("expected super admin required, got %v", err)
	}

	created, err := f.svc.RegisterAdmin(ctx, req, models.Actor{AdminID: root.ID, Role: models.RoleSuperAdmin})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Role != string(models.RoleAdmin) || !created.IsActive {
		t.Fatalf("unexpected admin %+v", created)
	}
	if f.audit.last(t).Action != models.ActionAdminCreated {
		t.Fatalf("expected ADMIN_CREATED audit")
	}

	_, err = f.svc.RegisterAdmin(ctx, req, models.Actor{AdminID: root.ID})
	if !errors.Is(err, apperrors.ErrEmailAlreadyExists) || apperrors.Message(err) != "Email already registered" {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	weak := *req
	weak.Email, weak.EmployeeID, weak.Password = "weak@school.edu", "EMP-0004", "short"
	if _, err := f.svc.RegisterAdmin(ctx, &weak, models.Actor{AdminID: root.ID}); !errors.Is(err, apperrors.ErrInvalidPassword) {
		t.Fatalf("expected weak password rejection, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	admin := f.addAdmin(t, "EMP-0042", "maria@school.edu", models.RoleAdmin)
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, "unknown@school.edu"); err != nil {
		t.Fatalf("unknown email should succeed silently: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Fatalf("expected no mail for unknown email")
	}

	if err := f.svc.ForgotPassword(ctx, "maria@school.edu"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	tokens := f.resets.Tokens(admin.ID)
	if len(tokens) != 1 || len(f.mail.sent) != 1 || f.mail.sent[0].token != tokens[0] {
		t.Fatalf("expected one emailed token, got %v / %+v", tokens, f.mail.sent)
	}

	newPassword := "Changed#2026"
	if err := f.svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: tokens[0], NewPassword: newPassword}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: tokens[0], NewPassword: newPassword}); !errors.Is(err, apperrors.ErrPasswordResetTokenUsed) {
		t.Fatalf("expected used token rejection, got %v", err)
	}
	if _, err := f.svc.Login(ctx, &dto.LoginRequest{Identifier: "EMP-0042", Password: newPassword}, models.Actor{}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPasswordResetTokenExpires(t *testing.T) {
	f := newAuthFixture(t)
	admin := f.addAdmin(t, "EMP-0042", "maria@school.edu", models.RoleAdmin)
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, "maria@school.edu"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	f.clock.Advance(2 * time.Hour)
	token := f.resets.Tokens(admin.ID)[0]
	if err := f.svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, NewPassword: "Changed#2026"}); !errors.Is(err, apperrors.ErrInvalidPasswordResetToken) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
}

func TestEnsureSuperAdminIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	seed := func() (bool, error) {
		return f.svc.EnsureSuperAdmin(ctx, &models.Admin{Email: "root@school.edu", EmployeeID: "EMP-0001", FullName: "Root"}, goodPassword)
	}
	created, err := seed()
	if err != nil || !created {
		t.Fatalf("expected seed to create admin, got %v, %v", created, err)
	}
	created, err = seed()
	if err != nil || created {
		t.Fatalf("expected second seed to be a no-op, got %v, %v", created, err)
	}
	root, err := f.admins.GetByEmployeeID(ctx, "EMP-0001")
	if err != nil || root.Role != models.RoleSuperAdmin {
		t.Fatalf("expected super admin, got %+v, %v", root, err)
	}
}
