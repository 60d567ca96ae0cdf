package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories/mock"
	"github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
)

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// recordingAudit keeps entries in memory instead of publishing them
type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (r *recordingAudit) Record(ctx context.Context, entry models.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AuditEntry(nil), r.entries...), int64(len(r.entries)), nil
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func (r *recordingAudit) last(t *testing.T) models.AuditEntry {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		t.Fatalf("expected an audit entry, got none")
	}
	return r.entries[len(r.entries)-1]
}

// countingInvalidator counts cache invalidations
type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fixture struct {
	store     *mock.AlumniStore
	forms     *mock.FormCompletionStore
	tx        *mock.Transactor
	audit     *recordingAudit
	stats     *countingInvalidator
	clock     *helpers.ManualClock
	guard     services.DuplicateGuard
	lifecycle services.LifecycleService
	alumni    services.AlumniService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: mock.NewAlumniStore(),
		forms: mock.NewFormCompletionStore(),
		tx:    &mock.Transactor{},
		audit: &recordingAudit{},
		stats: &countingInvalidator{},
		clock: helpers.NewManualClock(baseTime),
	}
	log := zerolog.Nop()
	f.guard = services.NewDuplicateGuard(f.store, log)
	f.lifecycle = services.NewLifecycleService(f.tx, f.store, f.audit, f.stats, f.clock, log)
	f.alumni = services.NewAlumniService(f.store, f.guard, f.audit, f.stats, log)
	return f
}

func (f *fixture) seed(studentNumber, name, email string) *models.Alumni {
	return f.store.Seed(&models.Alumni{
		StudentNumber: studentNumber,
		FullName:      name,
		Email:         email,
		IsActive:      true,
	})
}

func completeAlumni() *models.Alumni {
	related := true
	return &models.Alumni{
		ID:            7,
		StudentNumber: "2019-00123",
		FullName:      "Jane Doe",
		Email:         "jane@example.com",
		BirthMonth:    "04",
		BirthDay:      "17",
		BirthYear:     "1998",
		Contact:       "09171234567",
		Street:        "12 Mabini St",
		Province:      "Laguna",
		Municipality:  "Calamba",
		Barangay:      "Real",
		Degree:        "BS Computer Science",
		Major:         "Software Engineering",
		Honors:        "Cum Laude",
		GraduatedYear: "2020",
		DegreeLabel:   "BSCS",
		JobStatus:     models.JobStatusEmployed,
		CurrentJob:    "Developer",
		CareerPath:    "Engineering",
		IsRelated:     &related,
		IsActive:      true,
	}
}

var staff = models.Actor{AdminID: 1, EmployeeID: "EMP-0001", Role: models.RoleAdmin, IPAddress: "10.0.0.1"}
