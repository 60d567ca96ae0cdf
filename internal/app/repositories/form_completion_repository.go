package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/db"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
	"github.com/yigit/alumnitrack/internal/pkg/dberrors"
	"github.com/yigit/alumnitrack/internal/pkg/logger"
)

// FormCompletionRepository handles alumni_form_completion database operations
type FormCompletionRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewFormCompletionRepository creates a new FormCompletionRepository
func NewFormCompletionRepository(database *db.PostgresDB) *FormCompletionRepository {
	return &FormCompletionRepository{
		db: database,
		sb: psql,
	}
}

// MarkComplete upserts a completed row for the alumni and form
func (r *FormCompletionRepository) MarkComplete(ctx context.Context, alumniID int64, formType models.FormType, at time.Time) (*models.FormCompletion, error) {
	sql, args, err := r.sb.Insert("alumni_form_completion").
		Columns("alumni_id", "form_type", "is_completed", "completed_at").
		Values(alumniID, string(formType), true, at).
		Suffix("ON CONFLICT (alumni_id, form_type) DO UPDATE SET is_completed = EXCLUDED.is_completed, completed_at = EXCLUDED.completed_at RETURNING id, alumni_id, form_type, is_completed, completed_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build mark form complete query: %w", err)
	}

	fc := &models.FormCompletion{}
	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&fc.ID, &fc.AlumniID, &fc.FormType, &fc.IsCompleted, &fc.CompletedAt)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return nil, apperrors.ErrAlumniNotFound
		}
		logger.Error().Err(err).Int64("alumniID", alumniID).Str("formType", string(formType)).Msg("Error executing mark form complete query")
		return nil, fmt.Errorf("error marking form complete: %w", err)
	}
	return fc, nil
}

// ListByAlumni returns the form completion rows recorded for an alumni record
func (r *FormCompletionRepository) ListByAlumni(ctx context.Context, alumniID int64) ([]models.FormCompletion, error) {
	sql, args, err := r.sb.Select("id", "alumni_id", "form_type", "is_completed", "completed_at").
		From("alumni_form_completion").
		Where(squirrel.Eq{"alumni_id": alumniID}).
		OrderBy("form_type ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list form completion query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("alumniID", alumniID).Msg("Error executing list form completion query")
		return nil, fmt.Errorf("error listing form completion: %w", err)
	}
	defer rows.Close()

	forms := []models.FormCompletion{}
	for rows.Next() {
		var fc models.FormCompletion
		if err := rows.Scan(&fc.ID, &fc.AlumniID, &fc.FormType, &fc.IsCompleted, &fc.CompletedAt); err != nil {
			return nil, fmt.Errorf("error scanning form completion row: %w", err)
		}
		forms = append(forms, fc)
	}
	return forms, rows.Err()
}
