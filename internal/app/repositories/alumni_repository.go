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
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
	"github.com/yigit/alumnitrack/internal/pkg/logger"
)

// Unique constraints on alumni_profiles
const (
	ConstraintStudentNumber = "alumni_profiles_student_number_key"
	ConstraintEmail         = "alumni_profiles_email_key"
)

// DuplicateRaceMessage is reported when the store rejects a write the guard let through
const DuplicateRaceMessage = "This email or student number is already registered"

var alumniColumns = []string{
	"id", "student_number", "email", "full_name",
	"birth_month", "birth_day", "birth_year", "contact",
	"street", "province", "municipality", "barangay",
	"degree", "major", "honors", "graduated_year", "degree_label",
	"job_status", "current_job", "career_path", "is_related",
	"is_active", "is_archived", "archived_at", "archive_reason", "archived_by",
	"is_restored", "restored_at", "created_at", "updated_at",
}

// AlumniRepository handles alumni_profiles database operations
type AlumniRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewAlumniRepository creates a new AlumniRepository
func NewAlumniRepository(database *db.PostgresDB) *AlumniRepository {
	return &AlumniRepository{
		db: database,
		sb: psql,
	}
}

func scanAlumni(row pgx.Row) (*models.Alumni, error) {
	a := &models.Alumni{}
	var email, jobStatus *string
	err := row.Scan(
		&a.ID, &a.StudentNumber, &email, &a.FullName,
		&a.BirthMonth, &a.BirthDay, &a.BirthYear, &a.Contact,
		&a.Street, &a.Province, &a.Municipality, &a.Barangay,
		&a.Degree, &a.Major, &a.Honors, &a.GraduatedYear, &a.DegreeLabel,
		&jobStatus, &a.CurrentJob, &a.CareerPath, &a.IsRelated,
		&a.IsActive, &a.IsArchived, &a.ArchivedAt, &a.ArchiveReason, &a.ArchivedBy,
		&a.IsRestored, &a.RestoredAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Email = helpers.StringValue(email)
	if jobStatus != nil {
		a.JobStatus = models.JobStatus(*jobStatus)
	}
	return a, nil
}

func collectAlumni(rows pgx.Rows) ([]*models.Alumni, error) {
	defer rows.Close()

	list := []*models.Alumni{}
	for rows.Next() {
		a, err := scanAlumni(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alumni row: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alumni rows: %w", err)
	}
	return list, nil
}

func nullableJobStatus(js models.JobStatus) *string {
	return helpers.NullIfEmpty(string(js))
}

// mapWriteError turns unique violations on either key into a duplicate error
func mapWriteError(err error) error {
	if dberrors.IsDuplicateConstraintError(err, ConstraintStudentNumber) ||
		dberrors.IsDuplicateConstraintError(err, ConstraintEmail) {
		return apperrors.NewDuplicateAlumniError(DuplicateRaceMessage)
	}
	if dberrors.IsConnectionError(err) {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return err
}

// Create inserts a new alumni profile and returns its id
func (r *AlumniRepository) Create(ctx context.Context, a *models.Alumni) (int64, error) {
	sql, args, err := r.sb.Insert("alumni_profiles").
		Columns(
			"student_number", "email", "full_name",
			"birth_month", "birth_day", "birth_year", "contact",
			"street", "province", "municipality", "barangay",
			"degree", "major", "honors", "graduated_year", "degree_label",
			"job_status", "current_job", "career_path", "is_related", "is_active",
		).
		Values(
			a.StudentNumber, helpers.NullIfEmpty(a.Email), a.FullName,
			a.BirthMonth, a.BirthDay, a.BirthYear, a.Contact,
			a.Street, a.Province, a.Municipality, a.Barangay,
			a.Degree, a.Major, a.Honors, a.GraduatedYear, a.DegreeLabel,
			nullableJobStatus(a.JobStatus), a.CurrentJob, a.CareerPath, a.IsRelated, a.IsActive,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create alumni SQL")
		return 0, fmt.Errorf("failed to build create alumni query: %w", err)
	}

	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		mapped := mapWriteError(err)
		if mapped == err {
			logger.Error().Err(err).Str("studentNumber", a.StudentNumber).Msg("Error executing create alumni query")
			return 0, fmt.Errorf("error creating alumni: %w", err)
		}
		logger.Warn().Err(err).Str("studentNumber", a.StudentNumber).Msg("Create alumni rejected by store")
		return 0, mapped
	}

	return a.ID, nil
}

// Update replaces the profile fields of an alumni record
func (r *AlumniRepository) Update(ctx context.Context, a *models.Alumni) error {
	sql, args, err := r.sb.Update("alumni_profiles").
		SetMap(map[string]interface{}{
			"student_number": a.StudentNumber,
			"email":          helpers.NullIfEmpty(a.Email),
			"full_name":      a.FullName,
			"birth_month":    a.BirthMonth,
			"birth_day":      a.BirthDay,
			"birth_year":     a.BirthYear,
			"contact":        a.Contact,
			"street":         a.Street,
			"province":       a.Province,
			"municipality":   a.Municipality,
			"barangay":       a.Barangay,
			"degree":         a.Degree,
			"major":          a.Major,
			"honors":         a.Honors,
			"graduated_year": a.GraduatedYear,
			"degree_label":   a.DegreeLabel,
			"job_status":     nullableJobStatus(a.JobStatus),
			"current_job":    a.CurrentJob,
			"career_path":    a.CareerPath,
			"is_related":     a.IsRelated,
			"updated_at":     squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update alumni SQL")
		return fmt.Errorf("failed to build update alumni query: %w", err)
	}

	cmdTag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		logger.Error().Err(err).Int64("alumniID", a.ID).Msg("Error executing update alumni query")
		return fmt.Errorf("error updating alumni: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAlumniNotFound
	}
	return nil
}

func (r *AlumniRepository) getByID(ctx context.Context, id int64, forUpdate bool) (*models.Alumni, error) {
	q := r.sb.Select(alumniColumns...).
		From("alumni_profiles").
		Where(squirrel.Eq{"id": id}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get alumni by ID SQL")
		return nil, fmt.Errorf("failed to build get alumni query: %w", err)
	}

	a, err := scanAlumni(r.db.Conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAlumniNotFound
		}
		logger.Error().Err(err).Int64("alumniID", id).Msg("Error scanning alumni row")
		return nil, fmt.Errorf("error getting alumni by ID: %w", mapWriteError(err))
	}
	return a, nil
}

// GetByID retrieves an alumni record by id
func (r *AlumniRepository) GetByID(ctx context.Context, id int64) (*models.Alumni, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves and row-locks an alumni record. Call inside a transaction.
func (r *AlumniRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Alumni, error) {
	return r.getByID(ctx, id, true)
}

// FindByEmailOrStudentNumber returns records owning either key, archived ones included
func (r *AlumniRepository) FindByEmailOrStudentNumber(ctx context.Context, email, studentNumber string, excludeID *int64) ([]*models.Alumni, error) {
	match := squirrel.Or{}
	if email = strings.TrimSpace(email); email != "" {
		match = append(match, squirrel.Eq{"email": email})
	}
	if studentNumber = strings.TrimSpace(studentNumber); studentNumber != "" {
		match = append(match, squirrel.Eq{"student_number": studentNumber})
	}
	if len(match) == 0 {
		return []*models.Alumni{}, nil
	}

	where := squirrel.And{match}
	if excludeID != nil {
		where = append(where, squirrel.NotEq{"id": *excludeID})
	}

	sql, args, err := r.sb.Select(alumniColumns...).
		From("alumni_profiles").
		Where(where).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building duplicate lookup SQL")
		return nil, fmt.Errorf("failed to build duplicate lookup query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing duplicate lookup query")
		return nil, fmt.Errorf("error looking up duplicates: %w", mapWriteError(err))
	}
	return collectAlumni(rows)
}

func alumniListWhere(filter models.AlumniFilter) squirrel.And {
	where := squirrel.And{}
	switch filter.State {
	case models.StateArchived:
		where = append(where, squirrel.Eq{"is_archived": true})
	case models.StateAll:
	default:
		where = append(where, squirrel.Eq{"is_archived": false})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := helpers.ContainsPattern(s)
		where = append(where, squirrel.Or{
			squirrel.ILike{"full_name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"student_number": pattern},
		})
	}
	if filter.JobStatus != "" {
		where = append(where, squirrel.Eq{"job_status": string(filter.JobStatus)})
	}
	if filter.GraduatedYear != "" {
		where = append(where, squirrel.Eq{"graduated_year": filter.GraduatedYear})
	}
	if filter.Degree != "" {
		where = append(where, squirrel.ILike{"degree": helpers.ContainsPattern(filter.Degree)})
	}
	return where
}

func (r *AlumniRepository) count(ctx context.Context, where squirrel.Sqlizer) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("alumni_profiles").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting alumni: %w", mapWriteError(err))
	}
	return total, nil
}

// List returns a page of alumni matching the filter and the total match count
func (r *AlumniRepository) List(ctx context.Context, filter models.AlumniFilter) ([]*models.Alumni, int64, error) {
	where := alumniListWhere(filter)

	total, err := r.count(ctx, where)
	if err != nil {
		logger.Error().Err(err).Msg("Error counting alumni for list")
		return nil, 0, err
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := r.sb.Select(alumniColumns...).
		From("alumni_profiles").
		Where(where).
		OrderBy("full_name ASC", "id ASC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list alumni SQL")
		return nil, 0, fmt.Errorf("failed to build list alumni query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list alumni query")
		return nil, 0, fmt.Errorf("error listing alumni: %w", mapWriteError(err))
	}
	list, err := collectAlumni(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByState returns every alumni record in a lifecycle state, ordered by id
func (r *AlumniRepository) ListByState(ctx context.Context, state models.LifecycleState) ([]*models.Alumni, error) {
	q := r.sb.Select(alumniColumns...).From("alumni_profiles").OrderBy("id ASC")
	switch state {
	case models.StateActive:
		q = q.Where(squirrel.Eq{"is_archived": false})
	case models.StateArchived:
		q = q.Where(squirrel.Eq{"is_archived": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list by state query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("state", string(state)).Msg("Error executing list by state query")
		return nil, fmt.Errorf("error listing alumni: %w", mapWriteError(err))
	}
	return collectAlumni(rows)
}

// MarkArchived flags the record archived and clears any previous restore
func (r *AlumniRepository) MarkArchived(ctx context.Context, id int64, at time.Time, reason string, by *int64) error {
	sql, args, err := r.sb.Update("alumni_profiles").
		SetMap(map[string]interface{}{
			"is_archived":    true,
			"archived_at":    at,
			"archive_reason": helpers.NullIfEmpty(reason),
			"archived_by":    by,
			"is_restored":    false,
			"restored_at":    nil,
			"updated_at":     at,
		}).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build archive query: %w", err)
	}

	cmdTag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("alumniID", id).Msg("Error executing archive query")
		return fmt.Errorf("error archiving alumni: %w", mapWriteError(err))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAlumniNotFound
	}
	return nil
}

// MarkRestored clears the archive flag, keeping archived_at for history
func (r *AlumniRepository) MarkRestored(ctx context.Context, id int64, at time.Time) error {
	sql, args, err := r.sb.Update("alumni_profiles").
		SetMap(map[string]interface{}{
			"is_archived": false,
			"is_restored": true,
			"restored_at": at,
			"updated_at":  at,
		}).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build restore query: %w", err)
	}

	cmdTag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("alumniID", id).Msg("Error executing restore query")
		return fmt.Errorf("error restoring alumni: %w", mapWriteError(err))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAlumniNotFound
	}
	return nil
}

func archiveWhere(filter models.ArchiveFilter, cutoff time.Time) squirrel.And {
	where := squirrel.And{}
	switch strings.ToLower(filter.Status) {
	case "archived":
		where = append(where, squirrel.Eq{"is_archived": true}, squirrel.Gt{"archived_at": cutoff})
	case "pending":
		where = append(where, squirrel.Eq{"is_archived": true}, squirrel.LtOrEq{"archived_at": cutoff})
	case "restored":
		where = append(where, squirrel.Eq{"is_archived": false, "is_restored": true})
	default:
		where = append(where, squirrel.Or{
			squirrel.Eq{"is_archived": true},
			squirrel.Eq{"is_restored": true},
		})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := helpers.ContainsPattern(s)
		where = append(where, squirrel.Or{
			squirrel.ILike{"full_name": pattern},
			squirrel.ILike{"email": pattern},
		})
	}
	return where
}

// ListArchive returns archived and restored records, most recently archived first
func (r *AlumniRepository) ListArchive(ctx context.Context, filter models.ArchiveFilter, cutoff time.Time) ([]*models.Alumni, int64, error) {
	where := archiveWhere(filter, cutoff)

	total, err := r.count(ctx, where)
	if err != nil {
		logger.Error().Err(err).Msg("Error counting archive entries")
		return nil, 0, err
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := r.sb.Select(alumniColumns...).
		From("alumni_profiles").
		Where(where).
		OrderBy("archived_at DESC NULLS LAST", "id DESC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list archive query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list archive query")
		return nil, 0, fmt.Errorf("error listing archive: %w", mapWriteError(err))
	}
	list, err := collectAlumni(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ArchiveStats counts archived, restored and pending-deletion records
func (r *AlumniRepository) ArchiveStats(ctx context.Context, cutoff time.Time) (*models.ArchiveStats, error) {
	sql, args, err := r.sb.Select().
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE is_archived AND archived_at > ?)", cutoff)).
		Column("COUNT(*) FILTER (WHERE NOT is_archived AND is_restored)").
		Column(squirrel.Expr("COUNT(*) FILTER (WHERE is_archived AND archived_at <= ?)", cutoff)).
		From("alumni_profiles").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build archive stats query: %w", err)
	}

	stats := &models.ArchiveStats{}
	if err := r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(&stats.Archived, &stats.Restored, &stats.PendingDeletion); err != nil {
		logger.Error().Err(err).Msg("Error executing archive stats query")
		return nil, fmt.Errorf("error reading archive stats: %w", mapWriteError(err))
	}
	return stats, nil
}

// ListExpiredIDs returns archived, unrestored records archived at or before cutoff
func (r *AlumniRepository) ListExpiredIDs(ctx context.Context, cutoff time.Time) ([]int64, error) {
	sql, args, err := r.sb.Select("id").
		From("alumni_profiles").
		Where(squirrel.Eq{"is_archived": true, "is_restored": false}).
		Where(squirrel.LtOrEq{"archived_at": cutoff}).
		OrderBy("archived_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build expired archive query: %w", err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing expired archive query")
		return nil, fmt.Errorf("error listing expired archives: %w", mapWriteError(err))
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning expired archive ids: %w", err)
	}
	return ids, nil
}

// DeleteArchived removes a record only while it is still archived
func (r *AlumniRepository) DeleteArchived(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("alumni_profiles").
		Where(squirrel.Eq{"id": id, "is_archived": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete alumni query: %w", err)
	}

	cmdTag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("alumniID", id).Msg("Error executing delete alumni query")
		return fmt.Errorf("error deleting alumni: %w", mapWriteError(err))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAlumniNotArchived
	}
	return nil
}

// DeleteExpired removes a record only while it is archived, unrestored and past cutoff
func (r *AlumniRepository) DeleteExpired(ctx context.Context, id int64, cutoff time.Time) error {
	sql, args, err := r.sb.Delete("alumni_profiles").
		Where(squirrel.Eq{"id": id, "is_archived": true, "is_restored": false}).
		Where(squirrel.LtOrEq{"archived_at": cutoff}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete expired alumni query: %w", err)
	}

	cmdTag, err := r.db.Conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("alumniID", id).Msg("Error executing delete expired alumni query")
		return fmt.Errorf("error deleting expired alumni: %w", mapWriteError(err))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrArchiveNotExpired
	}
	return nil
}

// DuplicateGroups reports emails and student numbers shared by more than one record, ignoring case
func (r *AlumniRepository) DuplicateGroups(ctx context.Context) ([]models.DuplicateGroup, error) {
	const query = `
		SELECT 'email' AS field, LOWER(TRIM(email)) AS key, ARRAY_AGG(id ORDER BY id)
		FROM alumni_profiles
		WHERE email IS NOT NULL AND TRIM(email) <> ''
		GROUP BY LOWER(TRIM(email))
		HAVING COUNT(*) > 1
		UNION ALL
		SELECT 'student_number' AS field, LOWER(TRIM(student_number)) AS key, ARRAY_AGG(id ORDER BY id)
		FROM alumni_profiles
		GROUP BY LOWER(TRIM(student_number))
		HAVING COUNT(*) > 1
		ORDER BY field, key`

	rows, err := r.db.Conn(ctx).Query(ctx, query)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing duplicate groups query")
		return nil, fmt.Errorf("error finding duplicate groups: %w", mapWriteError(err))
	}
	defer rows.Close()

	groups := []models.DuplicateGroup{}
	for rows.Next() {
		var g models.DuplicateGroup
		if err := rows.Scan(&g.Field, &g.Key, &g.AlumniIDs); err != nil {
			return nil, fmt.Errorf("error scanning duplicate group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duplicate groups: %w", err)
	}
	return groups, nil
}

func (r *AlumniRepository) groupCounts(ctx context.Context, column string) (map[string]int64, error) {
	sql, args, err := r.sb.Select(fmt.Sprintf("COALESCE(NULLIF(TRIM(%s), ''), 'unspecified')", column), "COUNT(*)").
		From("alumni_profiles").
		Where(squirrel.Eq{"is_archived": false}).
		GroupBy("1").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s group query: %w", column, err)
	}

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error grouping by %s: %w", column, mapWriteError(err))
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("error scanning %s group: %w", column, err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// DashboardStats aggregates counts over the whole table and groupings over active records
func (r *AlumniRepository) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	const totals = `
		SELECT
			COUNT(*) FILTER (WHERE NOT is_archived),
			COUNT(*) FILTER (WHERE is_archived),
			COUNT(*) FILTER (WHERE is_restored AND NOT is_archived),
			COUNT(*) FILTER (WHERE NOT is_archived AND is_related IS TRUE),
			COUNT(*) FILTER (WHERE NOT is_archived AND is_related IS FALSE)
		FROM alumni_profiles`

	stats := &models.DashboardStats{}
	err := r.db.Conn(ctx).QueryRow(ctx, totals).Scan(
		&stats.TotalActive, &stats.TotalArchived, &stats.TotalRestored, &stats.Related, &stats.NotRelated,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing dashboard totals query")
		return nil, fmt.Errorf("error reading dashboard totals: %w", mapWriteError(err))
	}

	if stats.ByJobStatus, err = r.groupCounts(ctx, "job_status"); err != nil {
		return nil, err
	}
	if stats.ByGraduationYear, err = r.groupCounts(ctx, "graduated_year"); err != nil {
		return nil, err
	}
	if stats.ByDegree, err = r.groupCounts(ctx, "degree"); err != nil {
		return nil, err
	}
	return stats, nil
}
