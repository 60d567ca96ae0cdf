package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
	"github.com/yigit/alumnitrack/internal/pkg/validation"
)

// Row outcome messages
const (
	MsgUploadedSuccessfully = "Uploaded successfully"
	MsgUnknownCandidate     = "Unknown candidate index"
)

// BulkUploadService stages parsed CSV uploads for review and inserts the confirmed rows
type BulkUploadService interface {
	Stage(ctx context.Context, text string, actor models.Actor) (*models.StagedBatch, error)
	Confirm(ctx context.Context, batchID string, selected []int, actor models.Actor) (*models.UploadSummary, error)
}

type bulkUploadServiceImpl struct {
	alumniRepo repositories.AlumniStore
	guard      DuplicateGuard
	audit      AuditService
	stats      CacheInvalidator
	staging    *expirable.LRU[string, *models.StagedBatch]
	ttl        time.Duration
	clock      helpers.Clock
	logger     zerolog.Logger
}

// NewBulkUploadService creates a new BulkUploadService holding at most size staged batches for ttl
func NewBulkUploadService(
	alumniRepo repositories.AlumniStore,
	guard DuplicateGuard,
	audit AuditService,
	stats CacheInvalidator,
	size int,
	ttl time.Duration,
	clock helpers.Clock,
	logger zerolog.Logger,
) BulkUploadService {
	return &bulkUploadServiceImpl{
		alumniRepo: alumniRepo,
		guard:      guard,
		audit:      audit,
		stats:      stats,
		staging:    expirable.NewLRU[string, *models.StagedBatch](size, nil, ttl),
		ttl:        ttl,
		clock:      clock,
		logger:     logger,
	}
}

// Stage parses the upload and keeps the candidates until confirmation or expiry
func (s *bulkUploadServiceImpl) Stage(ctx context.Context, text string, actor models.Actor) (*models.StagedBatch, error) {
	parsed := ParseAlumniCSV(text)
	if len(parsed.Candidates) == 0 {
		return nil, apperrors.NewCustomError(apperrors.ErrEmptyUpload,
			"No valid records found in CSV. Make sure your CSV has columns: Full Name, Email, Student Number").
			WithDetails(map[string]interface{}{"skipped": parsed.Skipped})
	}

	batch := &models.StagedBatch{
		BatchID:    uuid.New().String(),
		Candidates: parsed.Candidates,
		Skipped:    parsed.Skipped,
		StagedBy:   actor.AdminID,
		ExpiresAt:  s.clock.Now().Add(s.ttl),
	}
	s.staging.Add(batch.BatchID, batch)

	s.logger.Info().
		Str("batchID", batch.BatchID).
		Int("candidates", len(batch.Candidates)).
		Int("skipped", len(batch.Skipped)).
		Msg("Bulk upload staged")
	return batch, nil
}

// Confirm inserts the selected candidates one by one. A failing row never aborts the rest.
func (s *bulkUploadServiceImpl) Confirm(ctx context.Context, batchID string, selected []int, actor models.Actor) (*models.UploadSummary, error) {
	batch, ok := s.staging.Get(batchID)
	if !ok || (batch.StagedBy != 0 && batch.StagedBy != actor.AdminID) {
		return nil, apperrors.ErrStagedBatchNotFound
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: select at least one candidate", apperrors.ErrValidationFailed)
	}

	indexes := uniqueSorted(selected)
	summary := &models.UploadSummary{Total: len(indexes), Results: make([]models.UploadRowResult, 0, len(indexes))}
	var added []string

	for _, idx := range indexes {
		row := models.UploadRowResult{Index: idx}
		if idx < 0 || idx >= len(batch.Candidates) {
			row.Message = MsgUnknownCandidate
			summary.Failed++
			summary.Results = append(summary.Results, row)
			continue
		}

		c := batch.Candidates[idx]
		row.StudentNumber, row.Email = c.StudentNumber, c.Email
		msg, err := s.insertCandidate(ctx, c)
		row.Message = msg
		if err != nil {
			summary.Failed++
			s.logger.Warn().Err(err).Str("batchID", batchID).Int("index", idx).Msg("Bulk upload row failed")
		} else {
			row.Success = true
			summary.Succeeded++
			added = append(added, fmt.Sprintf("Added alumni: %s (%s)", c.FullName, c.StudentNumber))
		}
		summary.Results = append(summary.Results, row)
	}

	s.staging.Remove(batchID)

	status := models.AuditSuccess
	details := strings.Join(added, "; ")
	if summary.Succeeded == 0 {
		status = models.AuditFailed
		details = fmt.Sprintf("Bulk upload failed for all %d rows", summary.Failed)
	}
	entry := NewAuditEntry(actor, models.ActionBulkUploadAlumni, models.TargetBatch, 0, details, status)
	entry.TargetID = batchID
	s.audit.Record(ctx, entry)

	if summary.Succeeded > 0 && s.stats != nil {
		s.stats.Invalidate()
	}
	s.logger.Info().
		Str("batchID", batchID).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Bulk upload confirmed")
	return summary, nil
}

// insertCandidate returns the row message shown to the operator along with any error
func (s *bulkUploadServiceImpl) insertCandidate(ctx context.Context, c models.Candidate) (string, error) {
	if errs := validation.ValidateStruct(c); len(errs) > 0 {
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+" "+errs[k])
		}
		detail := strings.Join(parts, ", ")
		return "Invalid row: " + detail, fmt.Errorf("%w: %s", apperrors.ErrValidationFailed, detail)
	}

	if err := ensureUnique(ctx, s.guard, c.Email, c.StudentNumber, nil); err != nil {
		if msg := apperrors.Message(err); msg != "" {
			return msg, err
		}
		return "Duplicate check failed: " + err.Error(), fmt.Errorf("duplicate check failed: %w", err)
	}

	if _, err := s.alumniRepo.Create(ctx, CandidateToAlumni(c)); err != nil {
		return "Insert failed: " + err.Error(), fmt.Errorf("insert failed: %w", err)
	}
	return MsgUploadedSuccessfully, nil
}

func uniqueSorted(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
