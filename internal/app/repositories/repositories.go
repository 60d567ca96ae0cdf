package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/db"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// psql is the shared statement builder for PostgreSQL placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// AlumniStore is the Record Store view of alumni_profiles
type AlumniStore interface {
	Create(ctx context.Context, alumni *models.Alumni) (int64, error)
	Update(ctx context.Context, alumni *models.Alumni) error
	GetByID(ctx context.Context, id int64) (*models.Alumni, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Alumni, error)
	FindByEmailOrStudentNumber(ctx context.Context, email, studentNumber string, excludeID *int64) ([]*models.Alumni, error)
	List(ctx context.Context, filter models.AlumniFilter) ([]*models.Alumni, int64, error)
	ListByState(ctx context.Context, state models.LifecycleState) ([]*models.Alumni, error)
	MarkArchived(ctx context.Context, id int64, at time.Time, reason string, by *int64) error
	MarkRestored(ctx context.Context, id int64, at time.Time) error
	ListArchive(ctx context.Context, filter models.ArchiveFilter, cutoff time.Time) ([]*models.Alumni, int64, error)
	ArchiveStats(ctx context.Context, cutoff time.Time) (*models.ArchiveStats, error)
	ListExpiredIDs(ctx context.Context, cutoff time.Time) ([]int64, error)
	DeleteArchived(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, id int64, cutoff time.Time) error
	DuplicateGroups(ctx context.Context) ([]models.DuplicateGroup, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// FormCompletionStore persists legacy form completion rows
type FormCompletionStore interface {
	MarkComplete(ctx context.Context, alumniID int64, formType models.FormType, at time.Time) (*models.FormCompletion, error)
	ListByAlumni(ctx context.Context, alumniID int64) ([]models.FormCompletion, error)
}

// AdminStore persists admin accounts
type AdminStore interface {
	Create(ctx context.Context, admin *models.Admin) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	Count(ctx context.Context) (int64, error)
}

// AuditStore persists audit trail entries
type AuditStore interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, int64, error)
}

// TokenStore persists refresh tokens
type TokenStore interface {
	CreateToken(ctx context.Context, token *models.RefreshToken) error
	GetByValue(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllAdminTokens(ctx context.Context, adminID int64) error
	CleanupExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenStore persists password reset tokens
type ResetTokenStore interface {
	CreateToken(ctx context.Context, adminID int64, token string, expiresAt time.Time) error
	GetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkTokenAsUsed(ctx context.Context, token string, at time.Time) error
	DeleteAdminTokens(ctx context.Context, adminID int64) error
}

// Repositories holds all the repository instances
type Repositories struct {
	DB                 *db.PostgresDB
	Alumni             *AlumniRepository
	FormCompletion     *FormCompletionRepository
	Admin              *AdminRepository
	Audit              *AuditRepository
	Token              *TokenRepository
	PasswordResetToken *PasswordResetTokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		DB:                 database,
		Alumni:             NewAlumniRepository(database),
		FormCompletion:     NewFormCompletionRepository(database),
		Admin:              NewAdminRepository(database),
		Audit:              NewAuditRepository(database),
		Token:              NewTokenRepository(database),
		PasswordResetToken: NewPasswordResetTokenRepository(database),
	}
}
