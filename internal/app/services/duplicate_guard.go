package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

// DuplicateGuard answers whether an email or student number is already taken
type DuplicateGuard interface {
	CheckExists(ctx context.Context, email, studentNumber string, excludeID *int64) (*models.DuplicateCheck, error)
	FindDuplicateGroups(ctx context.Context) ([]models.DuplicateGroup, error)
}

type duplicateGuardImpl struct {
	alumniRepo repositories.AlumniStore
	logger     zerolog.Logger
}

// NewDuplicateGuard creates a new DuplicateGuard
func NewDuplicateGuard(alumniRepo repositories.AlumniStore, logger zerolog.Logger) DuplicateGuard {
	return &duplicateGuardImpl{
		alumniRepo: alumniRepo,
		logger:     logger,
	}
}

// CheckExists looks for any record, archived or not, owning the email or student number.
// Store failures are returned so callers refuse the write.
func (g *duplicateGuardImpl) CheckExists(ctx context.Context, email, studentNumber string, excludeID *int64) (*models.DuplicateCheck, error) {
	email = strings.TrimSpace(email)
	studentNumber = strings.TrimSpace(studentNumber)
	if email == "" && studentNumber == "" {
		return &models.DuplicateCheck{Exists: false}, nil
	}

	matches, err := g.alumniRepo.FindByEmailOrStudentNumber(ctx, email, studentNumber, excludeID)
	if err != nil {
		g.logger.Error().Err(err).
			Str("email", email).
			Str("studentNumber", studentNumber).
			Msg("Duplicate check failed")
		return nil, fmt.Errorf("error checking for duplicate alumni: %w", err)
	}

	if len(matches) == 0 {
		return &models.DuplicateCheck{Exists: false}, nil
	}
	return &models.DuplicateCheck{Exists: true, Matched: matches[0]}, nil
}

// FindDuplicateGroups reports legacy records that share an email or student number
func (g *duplicateGuardImpl) FindDuplicateGroups(ctx context.Context) ([]models.DuplicateGroup, error) {
	groups, err := g.alumniRepo.DuplicateGroups(ctx)
	if err != nil {
		g.logger.Error().Err(err).Msg("Failed to load duplicate groups")
		return nil, fmt.Errorf("error loading duplicate groups: %w", err)
	}
	return groups, nil
}

// DuplicateError builds the refusal returned when the guard finds a match
func DuplicateError(matched *models.Alumni) error {
	name := ""
	if matched != nil {
		name = strings.TrimSpace(matched.FullName)
		if name == "" {
			name = matched.Email
		}
	}
	return apperrors.NewDuplicateAlumniError("Alumni already exists: " + name)
}

// ensureUnique runs the guard and converts a match into DuplicateError
func ensureUnique(ctx context.Context, guard DuplicateGuard, email, studentNumber string, excludeID *int64) error {
	check, err := guard.CheckExists(ctx, email, studentNumber, excludeID)
	if err != nil {
		return err
	}
	if check.Exists {
		return DuplicateError(check.Matched)
	}
	return nil
}
