package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

// AlumniService manages alumni profiles
type AlumniService interface {
	Create(ctx context.Context, alumni *models.Alumni, actor models.Actor) (*models.Alumni, error)
	Update(ctx context.Context, id int64, alumni *models.Alumni, actor models.Actor) (*models.Alumni, error)
	GetByID(ctx context.Context, id int64) (*models.Alumni, *models.CompletionStatus, error)
	List(ctx context.Context, filter models.AlumniFilter) ([]*models.Alumni, []*models.CompletionStatus, int64, error)
}

type alumniServiceImpl struct {
	alumniRepo repositories.AlumniStore
	guard      DuplicateGuard
	audit      AuditService
	stats      CacheInvalidator
	logger     zerolog.Logger
}

// NewAlumniService creates a new AlumniService
func NewAlumniService(
	alumniRepo repositories.AlumniStore,
	guard DuplicateGuard,
	audit AuditService,
	stats CacheInvalidator,
	logger zerolog.Logger,
) AlumniService {
	return &alumniServiceImpl{
		alumniRepo: alumniRepo,
		guard:      guard,
		audit:      audit,
		stats:      stats,
		logger:     logger,
	}
}

func (s *alumniServiceImpl) invalidate() {
	if s.stats != nil {
		s.stats.Invalidate()
	}
}

// Create inserts a new active record after the duplicate check
func (s *alumniServiceImpl) Create(ctx context.Context, alumni *models.Alumni, actor models.Actor) (*models.Alumni, error) {
	if alumni.StudentNumber == "" || alumni.FullName == "" {
		return nil, fmt.Errorf("%w: student number and full name are required", apperrors.ErrValidationFailed)
	}
	if err := ensureUnique(ctx, s.guard, alumni.Email, alumni.StudentNumber, nil); err != nil {
		return nil, err
	}

	alumni.IsActive = true
	alumni.IsArchived, alumni.IsRestored = false, false
	id, err := s.alumniRepo.Create(ctx, alumni)
	if err != nil {
		s.logger.Error().Err(err).Str("studentNumber", alumni.StudentNumber).Msg("Failed to create alumni")
		return nil, fmt.Errorf("error creating alumni: %w", err)
	}
	alumni.ID = id

	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionAlumniCreated, models.TargetAlumni, id,
		fmt.Sprintf("Created alumni: %s (%s)", alumni.FullName, alumni.StudentNumber), models.AuditSuccess))
	s.invalidate()
	return alumni, nil
}

// Update replaces the profile fields of a record. Lifecycle flags are untouched.
func (s *alumniServiceImpl) Update(ctx context.Context, id int64, alumni *models.Alumni, actor models.Actor) (*models.Alumni, error) {
	existing, err := s.alumniRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading alumni: %w", err)
	}
	if alumni.StudentNumber == "" || alumni.FullName == "" {
		return nil, fmt.Errorf("%w: student number and full name are required", apperrors.ErrValidationFailed)
	}
	if err := ensureUnique(ctx, s.guard, alumni.Email, alumni.StudentNumber, &id); err != nil {
		return nil, err
	}

	alumni.ID = id
	if err := s.alumniRepo.Update(ctx, alumni); err != nil {
		s.logger.Error().Err(err).Int64("alumniID", id).Msg("Failed to update alumni")
		return nil, fmt.Errorf("error updating alumni: %w", err)
	}

	updated, err := s.alumniRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error reloading alumni: %w", err)
	}

	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionAlumniUpdated, models.TargetAlumni, id,
		ProfileUpdateDetails(changedFields(existing, updated)), models.AuditSuccess))
	s.invalidate()
	return updated, nil
}

// GetByID returns a record with its completion projection
func (s *alumniServiceImpl) GetByID(ctx context.Context, id int64) (*models.Alumni, *models.CompletionStatus, error) {
	alumni, err := s.alumniRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading alumni: %w", err)
	}
	return alumni, completionFor(alumni), nil
}

// List returns one page of records with a completion projection per record
func (s *alumniServiceImpl) List(ctx context.Context, filter models.AlumniFilter) ([]*models.Alumni, []*models.CompletionStatus, int64, error) {
	records, total, err := s.alumniRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list alumni")
		return nil, nil, 0, fmt.Errorf("error listing alumni: %w", err)
	}

	completions := make([]*models.CompletionStatus, len(records))
	for i, a := range records {
		completions[i] = completionFor(a)
	}
	return records, completions, total, nil
}

func changedFields(before, after *models.Alumni) map[string]string {
	related := func(b *bool) string {
		if b == nil {
			return ""
		}
		return strconv.FormatBool(*b)
	}
	pairs := []struct {
		name     string
		old, new string
	}{
		{"student_number", before.StudentNumber, after.StudentNumber},
		{"full_name", before.FullName, after.FullName},
		{"email", before.Email, after.Email},
		{"birth_month", before.BirthMonth, after.BirthMonth},
		{"birth_day", before.BirthDay, after.BirthDay},
		{"birth_year", before.BirthYear, after.BirthYear},
		{"contact", before.Contact, after.Contact},
		{"street", before.Street, after.Street},
		{"province", before.Province, after.Province},
		{"municipality", before.Municipality, after.Municipality},
		{"barangay", before.Barangay, after.Barangay},
		{"degree", before.Degree, after.Degree},
		{"major", before.Major, after.Major},
		{"honors", before.Honors, after.Honors},
		{"graduated_year", before.GraduatedYear, after.GraduatedYear},
		{"degree_label", before.DegreeLabel, after.DegreeLabel},
		{"job_status", string(before.JobStatus), string(after.JobStatus)},
		{"current_job", before.CurrentJob, after.CurrentJob},
		{"career_path", before.CareerPath, after.CareerPath},
		{"is_related", related(before.IsRelated), related(after.IsRelated)},
	}

	out := map[string]string{}
	for _, p := range pairs {
		if p.old != p.new {
			out[p.name] = p.new
		}
	}
	return out
}
