package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/db"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
	"github.com/yigit/alumnitrack/internal/pkg/logger"
)

// AuditRepository handles admin_audit_trail database operations
type AuditRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(database *db.PostgresDB) *AuditRepository {
	return &AuditRepository{
		db: database,
		sb: psql,
	}
}

// Insert appends an entry to the audit trail
func (r *AuditRepository) Insert(ctx context.Context, e *models.AuditEntry) error {
	status := e.Status
	if status == "" {
		status = models.AuditSuccess
	}

	q := r.sb.Insert("admin_audit_trail").
		Columns("admin_id", "employee_id", "action", "target_type", "target_id", "details", "ip_address", "user_agent", "status")
	values := []interface{}{e.AdminID, helpers.NullIfEmpty(e.EmployeeID), e.Action, e.TargetType, e.TargetID, e.Details, e.IPAddress, e.UserAgent, string(status)}
	if !e.CreatedAt.IsZero() {
		q = q.Columns("created_at")
		values = append(values, e.CreatedAt)
	}

	sql, args, err := q.Values(values...).Suffix("RETURNING id").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert audit query: %w", err)
	}

	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&e.ID); err != nil {
		logger.Error().Err(err).Str("action", e.Action).Msg("Error executing insert audit query")
		return fmt.Errorf("error inserting audit entry: %w", err)
	}
	return nil
}

// List returns a page of audit entries, newest first
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, int64, error) {
	where := squirrel.And{}
	if filter.Action != "" {
		where = append(where, squirrel.Eq{"action": filter.Action})
	}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.AdminID != nil {
		where = append(where, squirrel.Eq{"admin_id": *filter.AdminID})
	}
	if filter.Since != nil {
		where = append(where, squirrel.GtOrEq{"created_at": *filter.Since})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("admin_audit_trail").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count audit query: %w", err)
	}
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting audit entries")
		return nil, 0, fmt.Errorf("error counting audit entries: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := r.sb.Select("id", "admin_id", "COALESCE(employee_id, '')", "action", "target_type", "target_id",
		"details", "ip_address", "user_agent", "status", "created_at").
		From("admin_audit_trail").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list audit query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list audit query")
		return nil, 0, fmt.Errorf("error listing audit entries: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.EmployeeID, &e.Action, &e.TargetType, &e.TargetID,
			&e.Details, &e.IPAddress, &e.UserAgent, &e.Status, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning audit row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit rows: %w", err)
	}
	return entries, total, nil
}
