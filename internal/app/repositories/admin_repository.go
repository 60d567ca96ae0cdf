package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/db"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
	"github.com/yigit/alumnitrack/internal/pkg/dberrors"
	"github.com/yigit/alumnitrack/internal/pkg/logger"
)

var adminColumns = []string{
	"id", "email", "password", "full_name", "employee_id", "department",
	"role", "is_active", "last_login_at", "created_at", "updated_at",
}

// AdminRepository handles admins database operations
type AdminRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewAdminRepository creates a new AdminRepository
func NewAdminRepository(database *db.PostgresDB) *AdminRepository {
	return &AdminRepository{
		db: database,
		sb: psql,
	}
}

func scanAdmin(row pgx.Row) (*models.Admin, error) {
	a := &models.Admin{}
	err := row.Scan(&a.ID, &a.Email, &a.Password, &a.FullName, &a.EmployeeID, &a.Department,
		&a.Role, &a.IsActive, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new admin and returns its id
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) (int64, error) {
	sql, args, err := r.sb.Insert("admins").
		Columns("email", "password", "full_name", "employee_id", "department", "role", "is_active").
		Values(strings.ToLower(admin.Email), admin.Password, admin.FullName, admin.EmployeeID, admin.Department, string(admin.Role), admin.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create admin SQL")
		return 0, fmt.Errorf("failed to build create admin query: %w", err)
	}

	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&admin.ID, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "admins_email_key") {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		if dberrors.IsDuplicateConstraintError(err, "admins_employee_id_key") {
			return 0, apperrors.ErrEmployeeIDExists
		}
		logger.Error().Err(err).Str("employeeID", admin.EmployeeID).Msg("Error executing create admin query")
		return 0, fmt.Errorf("error creating admin: %w", err)
	}
	return admin.ID, nil
}

func (r *AdminRepository) getBy(ctx context.Context, where squirrel.Sqlizer) (*models.Admin, error) {
	sql, args, err := r.sb.Select(adminColumns...).From("admins").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get admin query: %w", err)
	}

	admin, err := scanAdmin(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAdminNotFound
		}
		logger.Error().Err(err).Msg("Error scanning admin row")
		return nil, fmt.Errorf("error getting admin: %w", err)
	}
	return admin, nil
}

// GetByID retrieves an admin by id
func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves an admin by email, ignoring case
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return r.getBy(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetByEmployeeID retrieves an admin by employee id
func (r *AdminRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*models.Admin, error) {
	return r.getBy(ctx, squirrel.Eq{"employee_id": strings.TrimSpace(employeeID)})
}

// UpdateLastLogin stamps a successful login
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	sql, args, err := r.sb.Update("admins").
		Set("last_login_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update last login query: %w", err)
	}
	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("adminID", id).Msg("Error executing update last login query")
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *AdminRepository) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	sql, args, err := r.sb.Update("admins").
		Set("password", hashedPassword).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update password query: %w", err)
	}

	cmdTag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("adminID", id).Msg("Error executing update password query")
		return fmt.Errorf("error updating password: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAdminNotFound
	}
	return nil
}

// Count returns the number of admin accounts
func (r *AdminRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Conn(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM admins").Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting admins: %w", err)
	}
	return n, nil
}
