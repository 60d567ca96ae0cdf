package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

// AdminStore is an in-memory repositories.AdminStore
type AdminStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Admin
	Err    error
}

// NewAdminStore creates an empty AdminStore
func NewAdminStore() *AdminStore {
	return &AdminStore{rows: map[int64]*models.Admin{}}
}

func (s *AdminStore) Create(ctx context.Context, admin *models.Admin) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	for _, row := range s.rows {
		if row.Email == admin.Email {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		if row.EmployeeID == admin.EmployeeID {
			return 0, apperrors.ErrEmployeeIDExists
		}
	}
	s.nextID++
	admin.ID = s.nextID
	admin.CreatedAt = time.Now()
	admin.UpdatedAt = admin.CreatedAt
	cp := *admin
	s.rows[admin.ID] = &cp
	return admin.ID, nil
}

func (s *AdminStore) find(match func(*models.Admin) bool) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, row := range s.rows {
		if match(row) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, apperrors.ErrAdminNotFound
}

func (s *AdminStore) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	return s.find(func(a *models.Admin) bool { return a.ID == id })
}

func (s *AdminStore) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.find(func(a *models.Admin) bool { return a.Email == email })
}

func (s *AdminStore) GetByEmployeeID(ctx context.Context, employeeID string) (*models.Admin, error) {
	return s.find(func(a *models.Admin) bool { return a.EmployeeID == employeeID })
}

func (s *AdminStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return apperrors.ErrAdminNotFound
	}
	row.LastLoginAt = &at
	return nil
}

func (s *AdminStore) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return apperrors.ErrAdminNotFound
	}
	row.Password = hashedPassword
	return nil
}

func (s *AdminStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), s.Err
}

// SetActive toggles an account for disabled-login tests
func (s *AdminStore) SetActive(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		row.IsActive = active
	}
}

// TokenStore is an in-memory repositories.TokenStore
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

// NewTokenStore creates an empty TokenStore
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: map[string]*models.RefreshToken{}}
}

func (s *TokenStore) CreateToken(ctx context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *token
	s.tokens[token.Token] = &cp
	return nil
}

func (s *TokenStore) GetByValue(ctx context.Context, token string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *TokenStore) RevokeToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.IsRevoked = true
	return nil
}

func (s *TokenStore) RevokeAllAdminTokens(ctx context.Context, adminID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.AdminID == adminID {
			t.IsRevoked = true
		}
	}
	return nil
}

func (s *TokenStore) CleanupExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, t := range s.tokens {
		if t.IsRevoked || t.ExpiresAt.Before(now) {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}

// ResetTokenStore is an in-memory repositories.ResetTokenStore
type ResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.PasswordResetToken
}

// NewResetTokenStore creates an empty ResetTokenStore
func NewResetTokenStore() *ResetTokenStore {
	return &ResetTokenStore{tokens: map[string]*models.PasswordResetToken{}}
}

// Tokens returns the stored token values for one admin
func (s *ResetTokenStore) Tokens(adminID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for k, t := range s.tokens {
		if t.AdminID == adminID {
			out = append(out, k)
		}
	}
	return out
}

func (s *ResetTokenStore) CreateToken(ctx context.Context, adminID int64, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = &models.PasswordResetToken{AdminID: adminID, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (s *ResetTokenStore) GetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, apperrors.ErrInvalidPasswordResetToken
	}
	cp := *t
	return &cp, nil
}

func (s *ResetTokenStore) MarkTokenAsUsed(ctx context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok || t.UsedAt != nil {
		return apperrors.ErrPasswordResetTokenUsed
	}
	t.UsedAt = &at
	return nil
}

func (s *ResetTokenStore) DeleteAdminTokens(ctx context.Context, adminID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.tokens {
		if t.AdminID == adminID {
			delete(s.tokens, k)
		}
	}
	return nil
}

var (
	_ repositories.AdminStore      = (*AdminStore)(nil)
	_ repositories.TokenStore      = (*TokenStore)(nil)
	_ repositories.ResetTokenStore = (*ResetTokenStore)(nil)
)
