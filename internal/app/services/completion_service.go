package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
)

type field struct {
	name  string
	value func(*models.Alumni) string
}

var personalFields = []field{
	{"student_number", func(a *models.Alumni) string { return a.StudentNumber }},
	{"full_name", func(a *models.Alumni) string { return a.FullName }},
	{"email", func(a *models.Alumni) string { return a.Email }},
	{"birth_month", func(a *models.Alumni) string { return a.BirthMonth }},
	{"birth_day", func(a *models.Alumni) string { return a.BirthDay }},
	{"birth_year", func(a *models.Alumni) string { return a.BirthYear }},
	{"contact", func(a *models.Alumni) string { return a.Contact }},
	{"street", func(a *models.Alumni) string { return a.Street }},
	{"province", func(a *models.Alumni) string { return a.Province }},
	{"municipality", func(a *models.Alumni) string { return a.Municipality }},
	{"barangay", func(a *models.Alumni) string { return a.Barangay }},
}

var academicFields = []field{
	{"degree", func(a *models.Alumni) string { return a.Degree }},
	{"major", func(a *models.Alumni) string { return a.Major }},
	{"honors", func(a *models.Alumni) string { return a.Honors }},
	{"graduated_year", func(a *models.Alumni) string { return a.GraduatedYear }},
	{"degree_label", func(a *models.Alumni) string { return a.DegreeLabel }},
}

var careerFields = []field{
	{"job_status", func(a *models.Alumni) string { return string(a.JobStatus) }},
	{"current_job", func(a *models.Alumni) string { return a.CurrentJob }},
	{"career_path", func(a *models.Alumni) string { return a.CareerPath }},
}

func missing(a *models.Alumni, fields []field) []string {
	var out []string
	for _, f := range fields {
		if strings.TrimSpace(f.value(a)) == "" {
			out = append(out, f.name)
		}
	}
	return out
}

// ComputeCompletion derives per-section completeness from the stored fields.
// An explicit false for is_related counts as answered.
func ComputeCompletion(a *models.Alumni) models.CompletionStatus {
	status := models.CompletionStatus{
		AlumniID:      a.ID,
		TotalSections: models.TotalSections,
		MissingFields: map[string][]string{},
	}

	personal := missing(a, personalFields)
	academic := missing(a, academicFields)
	career := missing(a, careerFields)
	if a.IsRelated == nil {
		career = append(career, "is_related")
	}

	status.Sections = models.SectionStatus{
		Personal: len(personal) == 0,
		Academic: len(academic) == 0,
		Career:   len(career) == 0,
	}
	for section, fields := range map[string][]string{
		models.SectionPersonal: personal,
		models.SectionAcademic: academic,
		models.SectionCareer:   career,
	} {
		if len(fields) == 0 {
			continue
		}
		status.MissingFields[section] = fields
	}
	for _, done := range []bool{status.Sections.Personal, status.Sections.Academic, status.Sections.Career} {
		if done {
			status.CompletedSections++
		}
	}
	return status
}

// CompletionService exposes completion projections and legacy form completion rows
type CompletionService interface {
	GetCompletion(ctx context.Context, alumniID int64) (*models.CompletionStatus, error)
	MarkFormComplete(ctx context.Context, alumniID int64, formType models.FormType, actor models.Actor) (*models.FormCompletion, error)
	ListFormCompletions(ctx context.Context, alumniID int64) ([]models.FormCompletion, error)
}

type completionServiceImpl struct {
	alumniRepo repositories.AlumniStore
	formRepo   repositories.FormCompletionStore
	audit      AuditService
	clock      helpers.Clock
	logger     zerolog.Logger
}

// NewCompletionService creates a new CompletionService
func NewCompletionService(
	alumniRepo repositories.AlumniStore,
	formRepo repositories.FormCompletionStore,
	audit AuditService,
	clock helpers.Clock,
	logger zerolog.Logger,
) CompletionService {
	return &completionServiceImpl{
		alumniRepo: alumniRepo,
		formRepo:   formRepo,
		audit:      audit,
		clock:      clock,
		logger:     logger,
	}
}

// GetCompletion loads the record and projects it. Lookup failures are returned, never a partial result.
func (s *completionServiceImpl) GetCompletion(ctx context.Context, alumniID int64) (*models.CompletionStatus, error) {
	alumni, err := s.alumniRepo.GetByID(ctx, alumniID)
	if err != nil {
		s.logger.Error().Err(err).Int64("alumniID", alumniID).Msg("Failed to load alumni for completion")
		return nil, fmt.Errorf("error loading alumni: %w", err)
	}
	status := ComputeCompletion(alumni)
	return &status, nil
}

// MarkFormComplete upserts a completed row for one legacy form
func (s *completionServiceImpl) MarkFormComplete(ctx context.Context, alumniID int64, formType models.FormType, actor models.Actor) (*models.FormCompletion, error) {
	if !formType.IsValid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidFormType, formType)
	}

	fc, err := s.formRepo.MarkComplete(ctx, alumniID, formType, s.clock.Now())
	if err != nil {
		s.logger.Error().Err(err).Int64("alumniID", alumniID).Str("formType", string(formType)).Msg("Failed to mark form complete")
		return nil, fmt.Errorf("error marking form complete: %w", err)
	}

	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionFormCompleted, models.TargetAlumni, alumniID,
		fmt.Sprintf("Marked %s complete", formType), models.AuditSuccess))
	return fc, nil
}

// ListFormCompletions returns the legacy form rows of one alumni record
func (s *completionServiceImpl) ListFormCompletions(ctx context.Context, alumniID int64) ([]models.FormCompletion, error) {
	if _, err := s.alumniRepo.GetByID(ctx, alumniID); err != nil {
		return nil, fmt.Errorf("error loading alumni: %w", err)
	}
	forms, err := s.formRepo.ListByAlumni(ctx, alumniID)
	if err != nil {
		s.logger.Error().Err(err).Int64("alumniID", alumniID).Msg("Failed to list form completions")
		return nil, fmt.Errorf("error listing form completions: %w", err)
	}
	return forms, nil
}

// completionFor is used by list responses
func completionFor(a *models.Alumni) *models.CompletionStatus {
	status := ComputeCompletion(a)
	return &status
}
