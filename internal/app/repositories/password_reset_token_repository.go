package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/db"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

// PasswordResetTokenRepository manages password reset tokens in the database
type PasswordResetTokenRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewPasswordResetTokenRepository creates a new PasswordResetTokenRepository
func NewPasswordResetTokenRepository(database *db.PostgresDB) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{
		db: database,
		sb: psql,
	}
}

// CreateToken stores a new password reset token
func (r *PasswordResetTokenRepository) CreateToken(ctx context.Context, adminID int64, token string, expiresAt time.Time) error {
	sql, args, err := r.sb.Insert("password_reset_tokens").
		Columns("admin_id", "token", "expires_at").
		Values(adminID, token, expiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create reset token query: %w", err)
	}
	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error creating password reset token: %w", err)
	}
	return nil
}

// GetToken retrieves a password reset token by value
func (r *PasswordResetTokenRepository) GetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	sql, args, err := r.sb.Select("id", "admin_id", "token", "expires_at", "used_at", "created_at").
		From("password_reset_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get reset token query: %w", err)
	}

	t := &models.PasswordResetToken{}
	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&t.ID, &t.AdminID, &t.Token, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvalidPasswordResetToken
		}
		return nil, fmt.Errorf("error retrieving password reset token: %w", err)
	}
	return t, nil
}

// MarkTokenAsUsed marks a token as used to prevent reuse
func (r *PasswordResetTokenRepository) MarkTokenAsUsed(ctx context.Context, token string, at time.Time) error {
	sql, args, err := r.sb.Update("password_reset_tokens").
		Set("used_at", at).
		Where(squirrel.Eq{"token": token, "used_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark reset token used query: %w", err)
	}

	result, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error marking token as used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrPasswordResetTokenUsed
	}
	return nil
}

// DeleteAdminTokens removes every reset token of an admin
func (r *PasswordResetTokenRepository) DeleteAdminTokens(ctx context.Context, adminID int64) error {
	sql, args, err := r.sb.Delete("password_reset_tokens").
		Where(squirrel.Eq{"admin_id": adminID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete reset tokens query: %w", err)
	}
	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error deleting password reset tokens: %w", err)
	}
	return nil
}
