package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/db"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
)

var lifecycleOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "alumnitrack_lifecycle_operations_total",
	Help: "Archive lifecycle operations, by operation and outcome.",
}, []string{"operation", "outcome"})

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	lifecycleOpsTotal.WithLabelValues(op, outcome).Inc()
}

// DaysRemaining is the number of whole retention days left for a record archived at archivedAt.
// It never goes below zero and never exceeds the retention window.
func DaysRemaining(archivedAt, now time.Time) int {
	elapsed := int(now.Sub(archivedAt) / (24 * time.Hour))
	if now.Before(archivedAt) {
		elapsed = 0
	}
	days := models.RetentionDays - elapsed
	if days < 0 {
		return 0
	}
	if days > models.RetentionDays {
		return models.RetentionDays
	}
	return days
}

// ArchiveStatusFor classifies a record seen through the archive
func ArchiveStatusFor(a *models.Alumni, now time.Time) models.ArchiveEntry {
	entry := models.ArchiveEntry{Alumni: a}
	if !a.IsArchived {
		entry.Status = models.ArchiveStatusRestored
		return entry
	}

	days := models.RetentionDays
	if a.ArchivedAt != nil {
		days = DaysRemaining(*a.ArchivedAt, now)
	}
	entry.DaysRemaining = &days
	if days <= 0 {
		entry.Status = models.ArchiveStatusPendingDeletion
	} else {
		entry.Status = models.ArchiveStatusArchived
	}
	return entry
}

// LifecycleService moves alumni records between active, archived and deleted
type LifecycleService interface {
	Archive(ctx context.Context, id int64, reason string, actor models.Actor) error
	Restore(ctx context.Context, id int64, actor models.Actor) (*models.OperationResult, error)
	BulkArchive(ctx context.Context, ids []int64, reason string, actor models.Actor) *models.BatchResult
	DeletePermanently(ctx context.Context, id int64, actor models.Actor) (*models.OperationResult, error)
	ListArchive(ctx context.Context, filter models.ArchiveFilter) ([]models.ArchiveEntry, int64, error)
	ArchiveStats(ctx context.Context) (*models.ArchiveStats, error)
	Cleanup(ctx context.Context, actor models.Actor) *models.CleanupResult
}

// CacheInvalidator is notified when record counts change
type CacheInvalidator interface {
	Invalidate()
}

type lifecycleServiceImpl struct {
	tx         db.Transactor
	alumniRepo repositories.AlumniStore
	audit      AuditService
	stats      CacheInvalidator
	clock      helpers.Clock
	logger     zerolog.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	tx db.Transactor,
	alumniRepo repositories.AlumniStore,
	audit AuditService,
	stats CacheInvalidator,
	clock helpers.Clock,
	logger zerolog.Logger,
) LifecycleService {
	return &lifecycleServiceImpl{
		tx:         tx,
		alumniRepo: alumniRepo,
		audit:      audit,
		stats:      stats,
		clock:      clock,
		logger:     logger,
	}
}

func (s *lifecycleServiceImpl) invalidate() {
	if s.stats != nil {
		s.stats.Invalidate()
	}
}

// archiveOne locks, checks and flags one record
func (s *lifecycleServiceImpl) archiveOne(ctx context.Context, id int64, reason string, actor models.Actor) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		alumni, err := s.alumniRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if alumni.IsArchived {
			return apperrors.ErrAlumniAlreadyArchived
		}

		var by *int64
		if actor.AdminID > 0 {
			adminID := actor.AdminID
			by = &adminID
		}
		return s.alumniRepo.MarkArchived(ctx, id, s.clock.Now(), strings.TrimSpace(reason), by)
	})
}

// Archive moves an active record into the archive. The record keeps its id.
func (s *lifecycleServiceImpl) Archive(ctx context.Context, id int64, reason string, actor models.Actor) error {
	err := s.archiveOne(ctx, id, reason, actor)
	observe("archive", err)
	if err != nil {
		s.logger.Error().Err(err).Int64("alumniID", id).Msg("Failed to archive alumni")
		s.audit.Record(ctx, NewAuditEntry(actor, models.ActionArchiveAlumni, models.TargetAlumni, id, err.Error(), models.AuditFailed))
		return fmt.Errorf("error archiving alumni: %w", err)
	}

	details := fmt.Sprintf("Archived alumni record %d", id)
	if r := strings.TrimSpace(reason); r != "" {
		details += ": " + r
	}
	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionArchiveAlumni, models.TargetAlumni, id, details, models.AuditSuccess))
	s.invalidate()
	s.logger.Info().Int64("alumniID", id).Int64("adminID", actor.AdminID).Msg("Alumni archived")
	return nil
}

// Restore returns an archived record to the active set with is_restored set
func (s *lifecycleServiceImpl) Restore(ctx context.Context, id int64, actor models.Actor) (*models.OperationResult, error) {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		alumni, err := s.alumniRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !alumni.IsArchived {
			return apperrors.ErrAlumniNotArchived
		}
		return s.alumniRepo.MarkRestored(ctx, id, s.clock.Now())
	})
	observe("restore", err)
	if err != nil {
		s.logger.Error().Err(err).Int64("alumniID", id).Msg("Failed to restore alumni")
		return &models.OperationResult{Success: false, Message: err.Error()}, fmt.Errorf("error restoring alumni: %w", err)
	}

	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionRestoreAlumni, models.TargetAlumni, id,
		fmt.Sprintf("Restored alumni record %d", id), models.AuditSuccess))
	s.invalidate()
	s.logger.Info().Int64("alumniID", id).Int64("adminID", actor.AdminID).Msg("Alumni restored")
	return &models.OperationResult{Success: true, Message: "Alumni record restored"}, nil
}

// BulkArchive archives each id independently. A canceled ctx stops the loop and
// reports every unprocessed id as failed.
func (s *lifecycleServiceImpl) BulkArchive(ctx context.Context, ids []int64, reason string, actor models.Actor) *models.BatchResult {
	result := &models.BatchResult{Results: []models.BatchItemResult{}}
	seen := make(map[int64]struct{}, len(ids))

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		item := models.BatchItemResult{ID: id}
		if err := ctx.Err(); err != nil {
			item.Error = err.Error()
		} else if err := s.archiveOne(ctx, id, reason, actor); err != nil {
			item.Error = batchError(err)
			s.logger.Warn().Err(err).Int64("alumniID", id).Msg("Bulk archive item failed")
		} else {
			item.Success = true
		}

		if item.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, item)
	}

	var failErr error
	if result.Failed > 0 {
		failErr = errors.New("partial failure")
	}
	observe("bulk_archive", failErr)

	result.Message = fmt.Sprintf("%d succeeded, %d failed", result.Succeeded, result.Failed)
	status := models.AuditSuccess
	if result.Succeeded == 0 && result.Failed > 0 {
		status = models.AuditFailed
	}
	entry := NewAuditEntry(actor, models.ActionBulkArchiveAlumni, models.TargetBatch, 0, "Bulk archive: "+result.Message, status)
	s.audit.Record(ctx, entry)
	if result.Succeeded > 0 {
		s.invalidate()
	}
	return result
}

func batchError(err error) string {
	if msg := apperrors.Message(err); msg != "" {
		return msg
	}
	return err.Error()
}

// DeletePermanently removes an archived record right away
func (s *lifecycleServiceImpl) DeletePermanently(ctx context.Context, id int64, actor models.Actor) (*models.OperationResult, error) {
	var deleted *models.Alumni
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		alumni, err := s.alumniRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !alumni.IsArchived {
			return apperrors.ErrAlumniNotArchived
		}
		deleted = alumni
		return s.alumniRepo.DeleteArchived(ctx, id)
	})
	observe("delete", err)
	if err != nil {
		s.logger.Error().Err(err).Int64("alumniID", id).Msg("Failed to delete archived alumni")
		return &models.OperationResult{Success: false, Message: err.Error()}, fmt.Errorf("error deleting alumni: %w", err)
	}

	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionDeleteAlumni, models.TargetAlumni, id, DeletionDetails(deleted), models.AuditSuccess))
	s.invalidate()
	s.logger.Info().Int64("alumniID", id).Int64("adminID", actor.AdminID).Msg("Archived alumni permanently deleted")
	return &models.OperationResult{Success: true, Message: "Alumni record permanently deleted"}, nil
}

// ListArchive returns archived and restored records with their retention status
func (s *lifecycleServiceImpl) ListArchive(ctx context.Context, filter models.ArchiveFilter) ([]models.ArchiveEntry, int64, error) {
	now := s.clock.Now()
	records, total, err := s.alumniRepo.ListArchive(ctx, filter, models.ArchiveCutoff(now))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list archive")
		return nil, 0, fmt.Errorf("error listing archive: %w", err)
	}

	entries := make([]models.ArchiveEntry, 0, len(records))
	for _, a := range records {
		entries = append(entries, ArchiveStatusFor(a, now))
	}
	return entries, total, nil
}

// ArchiveStats counts archived, restored and pending-deletion records
func (s *lifecycleServiceImpl) ArchiveStats(ctx context.Context) (*models.ArchiveStats, error) {
	stats, err := s.alumniRepo.ArchiveStats(ctx, models.ArchiveCutoff(s.clock.Now()))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load archive stats")
		return nil, fmt.Errorf("error loading archive stats: %w", err)
	}
	return stats, nil
}

// Cleanup deletes every archived, unrestored record past retention, continuing past individual failures
func (s *lifecycleServiceImpl) Cleanup(ctx context.Context, actor models.Actor) *models.CleanupResult {
	cutoff := models.ArchiveCutoff(s.clock.Now())
	ids, err := s.alumniRepo.ListExpiredIDs(ctx, cutoff)
	if err != nil {
		observe("cleanup", err)
		s.logger.Error().Err(err).Msg("Failed to select expired archives")
		s.audit.Record(ctx, NewAuditEntry(actor, models.ActionCleanupArchives, models.TargetBatch, 0, "Cleanup failed: "+err.Error(), models.AuditFailed))
		return &models.CleanupResult{Success: false, Message: "Failed to load expired archives: " + err.Error()}
	}

	result := &models.CleanupResult{Success: true}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		err := s.alumniRepo.DeleteExpired(ctx, id, cutoff)
		if errors.Is(err, apperrors.ErrArchiveNotExpired) {
			s.logger.Info().Int64("alumniID", id).Msg("Archive changed since selection, skipped by cleanup")
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Int64("alumniID", id).Msg("Failed to delete expired archive")
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.Deleted++
	}

	switch {
	case len(ids) == 0:
		result.Message = "No archived records past the retention period"
	case result.Failed == 0:
		result.Message = fmt.Sprintf("Deleted %d archived records", result.Deleted)
	default:
		result.Success = result.Deleted > 0
		result.Message = fmt.Sprintf("Deleted %d archived records, %d failed", result.Deleted, result.Failed)
	}

	var cleanupErr error
	if result.Failed > 0 {
		cleanupErr = errors.New("partial failure")
	}
	observe("cleanup", cleanupErr)

	status := models.AuditSuccess
	if !result.Success {
		status = models.AuditFailed
	}
	s.audit.Record(ctx, NewAuditEntry(actor, models.ActionCleanupArchives, models.TargetBatch, 0, result.Message, status))
	if result.Deleted > 0 {
		s.invalidate()
	}
	s.logger.Info().Int("deleted", result.Deleted).Int("failed", result.Failed).Msg("Archive cleanup finished")
	return result
}
