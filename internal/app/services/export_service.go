package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
)

// ExportColumns is the header row of alumni exports
var ExportColumns = []string{
	"id", "student_number", "full_name", "email",
	"birth_month", "birth_day", "birth_year", "contact",
	"street", "province", "municipality", "barangay",
	"degree", "major", "honors", "graduated_year", "degree_label",
	"job_status", "current_job", "career_path", "is_related",
	"is_archived", "archived_at", "is_restored", "created_at",
}

func exportRow(a *models.Alumni) []string {
	related := ""
	if a.IsRelated != nil {
		related = strconv.FormatBool(*a.IsRelated)
	}
	archivedAt := ""
	if a.ArchivedAt != nil {
		archivedAt = a.ArchivedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(a.ID, 10), a.StudentNumber, a.FullName, a.Email,
		a.BirthMonth, a.BirthDay, a.BirthYear, a.Contact,
		a.Street, a.Province, a.Municipality, a.Barangay,
		a.Degree, a.Major, a.Honors, a.GraduatedYear, a.DegreeLabel,
		string(a.JobStatus), a.CurrentJob, a.CareerPath, related,
		strconv.FormatBool(a.IsArchived), archivedAt, strconv.FormatBool(a.IsRestored),
		a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// WriteAlumniCSV writes a header row followed by one row per record with standard CSV quoting
func WriteAlumniCSV(w io.Writer, records []*models.Alumni) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return fmt.Errorf("error writing export header: %w", err)
	}
	for _, a := range records {
		if err := cw.Write(exportRow(a)); err != nil {
			return fmt.Errorf("error writing alumni %d: %w", a.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename stamps the export file with the UTC date of now
func ExportFilename(now time.Time) string {
	return "alumni_export_" + now.UTC().Format("2006-01-02") + ".csv"
}

// ExportService streams alumni records as CSV
type ExportService interface {
	Export(ctx context.Context, w io.Writer, scope models.LifecycleState, actor models.Actor) (int, error)
	Filename() string
}

type exportServiceImpl struct {
	alumniRepo repositories.AlumniStore
	audit      AuditService
	clock      helpers.Clock
	logger     zerolog.Logger
}

// NewExportService creates a new ExportService
func NewExportService(alumniRepo repositories.AlumniStore, audit AuditService, clock helpers.Clock, logger zerolog.Logger) ExportService {
	return &exportServiceImpl{
		alumniRepo: alumniRepo,
		audit:      audit,
		clock:      clock,
		logger:     logger,
	}
}

// Filename returns today's export filename
func (s *exportServiceImpl) Filename() string {
	return ExportFilename(s.clock.Now())
}

// Export writes every record in scope to w and returns how many were written
func (s *exportServiceImpl) Export(ctx context.Context, w io.Writer, scope models.LifecycleState, actor models.Actor) (int, error) {
	if scope == "" {
		scope = models.StateActive
	}
	records, err := s.alumniRepo.ListByState(ctx, scope)
	if err != nil {
		s.logger.Error().Err(err).Str("scope", string(scope)).Msg("Failed to load alumni for export")
		return 0, fmt.Errorf("error loading alumni for export: %w", err)
	}

	if err := WriteAlumniCSV(w, records); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write alumni export")
		return 0, err
	}

	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionExportAlumni, models.TargetAlumni, 0, ExportDetails(len(records)), models.AuditSuccess))
	return len(records), nil
}
