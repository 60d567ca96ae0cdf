package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/pkg/queue"
)

// AuditMessageType tags audit entries on the queue
const AuditMessageType = "audit.entry"

var (
	auditPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alumnitrack_audit_published_total",
		Help: "Audit entries handed to the queue, by outcome.",
	}, []string{"outcome"})
	auditWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alumnitrack_audit_written_total",
		Help: "Audit entries consumed by the worker, by outcome.",
	}, []string{"outcome"})
)

// AuditService records administrator actions without blocking the audited operation
type AuditService interface {
	Record(ctx context.Context, entry models.AuditEntry)
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, int64, error)
}

type auditServiceImpl struct {
	queue     queue.Queue
	auditRepo repositories.AuditStore
	clock     func() time.Time
	logger    zerolog.Logger
}

// NewAuditService creates a new AuditService publishing to q
func NewAuditService(q queue.Queue, auditRepo repositories.AuditStore, logger zerolog.Logger) AuditService {
	return &auditServiceImpl{
		queue:     q,
		auditRepo: auditRepo,
		clock:     func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Record publishes the entry. Failures are logged and never returned.
func (s *auditServiceImpl) Record(ctx context.Context, entry models.AuditEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock()
	}
	if entry.Status == "" {
		entry.Status = models.AuditSuccess
	}

	msg, err := queue.NewMessage(AuditMessageType, entry)
	if err != nil {
		auditPublishedTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("action", entry.Action).Msg("Failed to encode audit entry")
		return
	}

	// Detach from the request so a finished or canceled request still gets audited
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := s.queue.Publish(pubCtx, msg); err != nil {
		auditPublishedTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).
			Str("action", entry.Action).
			Str("targetID", entry.TargetID).
			Msg("Failed to publish audit entry")
		return
	}
	auditPublishedTotal.WithLabelValues("ok").Inc()
}

// List returns a page of the audit trail, newest first
func (s *auditServiceImpl) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, int64, error) {
	entries, total, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list audit trail")
		return nil, 0, fmt.Errorf("error listing audit trail: %w", err)
	}
	return entries, total, nil
}

// AuditWorker moves queued audit entries into the audit store
type AuditWorker struct {
	queue     queue.Queue
	auditRepo repositories.AuditStore
	logger    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAuditWorker creates a worker; call Start to begin consuming
func NewAuditWorker(q queue.Queue, auditRepo repositories.AuditStore, logger zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		queue:     q,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Start consumes the queue until Stop is called or ctx is done
func (w *AuditWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	messages, err := w.queue.Consume(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start audit consumer: %w", err)
	}
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for msg := range messages {
			w.handle(msg)
		}
	}()

	w.logger.Info().Msg("Audit worker started")
	return nil
}

// Stop cancels consumption, waits for the loop to exit and flushes what is still buffered in memory
func (w *AuditWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	w.wg.Wait()

	if d, ok := w.queue.(interface{ Drain() []queue.Message }); ok {
		for _, msg := range d.Drain() {
			w.handle(msg)
		}
	}
	w.logger.Info().Msg("Audit worker stopped")
}

func (w *AuditWorker) handle(msg queue.Message) {
	if msg.Type != AuditMessageType {
		return
	}

	var entry models.AuditEntry
	if err := msg.Decode(&entry); err != nil {
		auditWrittenTotal.WithLabelValues("decode_error").Inc()
		w.logger.Error().Err(err).Msg("Failed to decode audit entry")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.auditRepo.Insert(ctx, &entry); err != nil {
		auditWrittenTotal.WithLabelValues("error").Inc()
		w.logger.Error().Err(err).Str("action", entry.Action).Msg("Failed to write audit entry")
		return
	}
	auditWrittenTotal.WithLabelValues("ok").Inc()
}

// NewAuditEntry fills an entry from the acting admin
func NewAuditEntry(actor models.Actor, action, targetType string, targetID int64, details string, status models.AuditStatus) models.AuditEntry {
	entry := models.AuditEntry{
		EmployeeID: actor.EmployeeID,
		Action:     action,
		TargetType: targetType,
		Details:    details,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		Status:     status,
	}
	if actor.AdminID > 0 {
		id := actor.AdminID
		entry.AdminID = &id
	}
	if targetID > 0 {
		entry.TargetID = strconv.FormatInt(targetID, 10)
	}
	return entry
}

// LoginDetails describes a login attempt
func LoginDetails(identifier string, success bool, reason string) string {
	if success {
		return "Logged in with identifier: " + identifier
	}
	return "Login failed: " + reason
}

// DeletionDetails describes a permanently removed record
func DeletionDetails(a *models.Alumni) string {
	return fmt.Sprintf("Deleted alumni record %d: %s (%s)", a.ID, a.DisplayName(), a.StudentNumber)
}

// ExportDetails describes a CSV export
func ExportDetails(count int) string {
	return fmt.Sprintf("Exported %d alumni records", count)
}

// ProfileUpdateDetails lists the fields changed by an update as JSON
func ProfileUpdateDetails(changes map[string]string) string {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := json.Marshal(changes[k])
		kb, _ := json.Marshal(k)
		ordered = append(ordered, string(kb)+":"+string(v))
	}
	return "Updated profile: {" + strings.Join(ordered, ",") + "}"
}
