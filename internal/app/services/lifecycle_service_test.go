package services_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

const day = 24 * time.Hour

func TestDaysRemaining(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"just archived", 0, 30},
		{"under one day", 23 * time.Hour, 30},
		{"one day", day, 29},
		{"29 and a half days", 29*day + 12*time.Hour, 1},
		{"thirty days", 30 * day, 0},
		{"long past", 400 * day, 0},
		{"future archive time", -5 * day, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.DaysRemaining(baseTime, baseTime.Add(tt.elapsed)); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestDaysRemainingMonotonic(t *testing.T) {
	prev := services.DaysRemaining(baseTime, baseTime.Add(-day))
	for h := 0; h < 40*24; h += 7 {
		got := services.DaysRemaining(baseTime, baseTime.Add(time.Duration(h)*time.Hour))
		if got > prev || got < 0 || got > models.RetentionDays {
			t.Fatalf("at +%dh: got %d after %d", h, got, prev)
		}
		prev = got
	}
}

func TestArchiveRestorePreservesIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := f.store.Seed(completeAlumni())
	before := f.store.Get(original.ID)

	if err := f.lifecycle.Archive(ctx, original.ID, "moved abroad", staff); err != nil {
		t.Fatalf("archive: %v", err)
	}
	archived := f.store.Get(original.ID)
	if !archived.IsArchived || archived.ArchivedAt == nil || *archived.ArchiveReason != "moved abroad" || *archived.ArchivedBy != staff.AdminID {
		t.Fatalf("unexpected archived record %+v", archived)
	}

	f.clock.Advance(3 * day)
	res, err := f.lifecycle.Restore(ctx, original.ID, staff)
	if err != nil || !res.Success {
		t.Fatalf("restore: %+v, %v", res, err)
	}

	after := f.store.Get(original.ID)
	if after.ID != before.ID {
		t.Fatalf("identity changed: %d -> %d", before.ID, after.ID)
	}
	if after.IsArchived || !after.IsRestored || after.RestoredAt == nil {
		t.Fatalf("unexpected lifecycle flags %+v", after)
	}

	// Profile fields are untouched by the round trip
	after.IsRestored, after.RestoredAt = before.IsRestored, before.RestoredAt
	after.ArchivedAt, after.ArchiveReason, after.ArchivedBy = before.ArchivedAt, before.ArchiveReason, before.ArchivedBy
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("fields changed:\nbefore %+v\nafter  %+v", before, after)
	}

	want := []string{models.ActionArchiveAlumni, models.ActionRestoreAlumni}
	if got := f.audit.actions(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected audit %v, got %v", want, got)
	}
}

func TestArchiveErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed("2019-300", "Dana", "")

	if err := f.lifecycle.Archive(ctx, 999, "", staff); !errors.Is(err, apperrors.ErrAlumniNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.lifecycle.Archive(ctx, a.ID, "", staff); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := f.lifecycle.Archive(ctx, a.ID, "", staff); !errors.Is(err, apperrors.ErrAlumniAlreadyArchived) {
		t.Fatalf("expected already archived, got %v", err)
	}

	b := f.seed("2019-301", "Eli", "")
	res, err := f.lifecycle.Restore(ctx, b.ID, staff)
	if !errors.Is(err, apperrors.ErrAlumniNotArchived) || res == nil || res.Success {
		t.Fatalf("expected structured not-archived failure, got %+v, %v", res, err)
	}

	f.store.Err = apperrors.ErrStoreUnavailable
	if err := f.lifecycle.Archive(ctx, b.ID, "", staff); !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("expected store error, got %v", err)
	}
	if got := f.audit.last(t); got.Status != models.AuditFailed {
		t.Fatalf("expected failed audit entry, got %+v", got)
	}
}

func TestRetentionScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed("2019-400", "Faye", "faye@x.com")

	if err := f.lifecycle.Archive(ctx, a.ID, "", staff); err != nil {
		t.Fatalf("archive: %v", err)
	}

	entries, total, err := f.lifecycle.ListArchive(ctx, models.ArchiveFilter{})
	if err != nil || total != 1 {
		t.Fatalf("list archive: %d, %v", total, err)
	}
	if *entries[0].DaysRemaining != 30 || entries[0].Status != models.ArchiveStatusArchived {
		t.Fatalf("expected 30 days and Archived, got %d %s", *entries[0].DaysRemaining, entries[0].Status)
	}

	// Nothing is eligible yet
	if res := f.lifecycle.Cleanup(ctx, staff); res.Deleted != 0 || !res.Success {
		t.Fatalf("expected no-op cleanup, got %+v", res)
	}

	f.clock.Advance(31 * day)
	entries, _, err = f.lifecycle.ListArchive(ctx, models.ArchiveFilter{Status: "pending"})
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one pending entry, got %d, %v", len(entries), err)
	}
	if *entries[0].DaysRemaining != 0 || entries[0].Status != models.ArchiveStatusPendingDeletion {
		t.Fatalf("expected 0 days and Pending Deletion, got %d %s", *entries[0].DaysRemaining, entries[0].Status)
	}

	stats, err := f.lifecycle.ArchiveStats(ctx)
	if err != nil || stats.PendingDeletion != 1 || stats.Archived != 0 {
		t.Fatalf("unexpected stats %+v, %v", stats, err)
	}

	// Pending records are not removed until cleanup runs
	if f.store.Get(a.ID) == nil {
		t.Fatalf("record deleted without cleanup")
	}

	res := f.lifecycle.Cleanup(ctx, staff)
	if !res.Success || res.Deleted != 1 || res.Failed != 0 {
		t.Fatalf("unexpected cleanup result %+v", res)
	}
	if f.store.Get(a.ID) != nil {
		t.Fatalf("expected record removed")
	}

	res = f.lifecycle.Cleanup(ctx, staff)
	if res.Deleted != 0 || res.Failed != 0 {
		t.Fatalf("expected second cleanup to be a no-op, got %+v", res)
	}
}

func TestCleanupSkipsRestoredAndContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	restored := f.seed("r", "Restored", "")
	failing := f.seed("f", "Failing", "")
	ok := f.seed("o", "Ok", "")
	for _, a := range []*models.Alumni{restored, failing, ok} {
		if err := f.lifecycle.Archive(ctx, a.ID, "", staff); err != nil {
			t.Fatalf("archive %d: %v", a.ID, err)
		}
	}
	if _, err := f.lifecycle.Restore(ctx, restored.ID, staff); err != nil {
		t.Fatalf("restore: %v", err)
	}
	f.store.DeleteErrs[failing.ID] = errors.New("constraint violation")

	f.clock.Advance(45 * day)
	res := f.lifecycle.Cleanup(ctx, staff)
	if res.Deleted != 1 || res.Failed != 1 || len(res.FailedIDs) != 1 || res.FailedIDs[0] != failing.ID {
		t.Fatalf("unexpected cleanup result %+v", res)
	}
	if f.store.Get(restored.ID) == nil {
		t.Fatalf("restored record must survive cleanup")
	}
	if f.store.Get(failing.ID) == nil || f.store.Get(ok.ID) != nil {
		t.Fatalf("unexpected store state after cleanup")
	}
}

func TestCleanupStoreFailureIsStructured(t *testing.T) {
	f := newFixture(t)
	f.store.Err = apperrors.ErrStoreUnavailable
	res := f.lifecycle.Cleanup(context.Background(), staff)
	if res.Success || res.Message == "" {
		t.Fatalf("expected structured failure, got %+v", res)
	}
}

func TestCleanupSkipsRecordReArchivedAfterSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed("ra", "Rearchived", "")
	if err := f.lifecycle.Archive(ctx, a.ID, "", staff); err != nil {
		t.Fatalf("archive: %v", err)
	}
	f.clock.Advance(45 * day)

	f.store.BeforeDelete = func(id int64) {
		if _, err := f.lifecycle.Restore(ctx, id, staff); err != nil {
			t.Errorf("restore: %v", err)
		}
		if err := f.lifecycle.Archive(ctx, id, "again", staff); err != nil {
			t.Errorf("re-archive: %v", err)
		}
	}
	res := f.lifecycle.Cleanup(ctx, staff)
	if res.Deleted != 0 || res.Failed != 0 {
		t.Fatalf("expected nothing deleted or failed, got %+v", res)
	}
	got := f.store.Get(a.ID)
	if got == nil || !got.IsArchived {
		t.Fatalf("re-archived record must survive cleanup, got %+v", got)
	}
	if days := services.DaysRemaining(*got.ArchivedAt, f.clock.Now()); days != 30 {
		t.Fatalf("expected a fresh retention window, got %d days", days)
	}
}

func TestBulkArchivePartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed("b1", "One", "")
	b := f.seed("b2", "Two", "")
	c := f.seed("b3", "Three", "")
	if err := f.lifecycle.Archive(ctx, c.ID, "", staff); err != nil {
		t.Fatalf("archive: %v", err)
	}

	ids := []int64{a.ID, 999, b.ID, c.ID, a.ID}
	res := f.lifecycle.BulkArchive(ctx, ids, "graduated twice", staff)
	if res.Succeeded != 2 || res.Failed != 2 || len(res.Results) != 4 {
		t.Fatalf("unexpected batch %+v", res)
	}
	if res.Message != "2 succeeded, 2 failed" {
		t.Fatalf("unexpected message %q", res.Message)
	}

	active, err := f.store.ListByState(ctx, models.StateActive)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range active {
		if r.ID == a.ID || r.ID == b.ID {
			t.Fatalf("record %d still active after bulk archive", r.ID)
		}
	}
	if got := f.audit.last(t).Action; got != models.ActionBulkArchiveAlumni {
		t.Fatalf("expected bulk archive audit, got %s", got)
	}
}

func TestBulkArchiveCanceled(t *testing.T) {
	f := newFixture(t)
	a := f.seed("c1", "One", "")
	b := f.seed("c2", "Two", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.lifecycle.BulkArchive(ctx, []int64{a.ID, b.ID}, "", staff)
	if res.Succeeded != 0 || res.Failed != 2 {
		t.Fatalf("expected all ids reported failed, got %+v", res)
	}
	for _, item := range res.Results {
		if item.Error != context.Canceled.Error() {
			t.Fatalf("expected canceled error, got %q", item.Error)
		}
	}
	if f.store.Get(a.ID).IsArchived {
		t.Fatalf("no record should be archived after cancel")
	}
}

func TestDeletePermanently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed("d1", "Delete Me", "")

	if _, err := f.lifecycle.DeletePermanently(ctx, a.ID, staff); !errors.Is(err, apperrors.ErrAlumniNotArchived) {
		t.Fatalf("expected active record to be refused, got %v", err)
	}
	if err := f.lifecycle.Archive(ctx, a.ID, "", staff); err != nil {
		t.Fatalf("archive: %v", err)
	}
	res, err := f.lifecycle.DeletePermanently(ctx, a.ID, staff)
	if err != nil || !res.Success {
		t.Fatalf("delete: %+v, %v", res, err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected store empty")
	}
	if f.stats.count() == 0 {
		t.Fatalf("expected stats cache invalidation")
	}
}

func TestReArchiveClearsRestoredFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed("e1", "Again", "")
	_ = f.lifecycle.Archive(ctx, a.ID, "", staff)
	_, _ = f.lifecycle.Restore(ctx, a.ID, staff)
	if err := f.lifecycle.Archive(ctx, a.ID, "", staff); err != nil {
		t.Fatalf("re-archive: %v", err)
	}
	got := f.store.Get(a.ID)
	if got.IsRestored || got.RestoredAt != nil || !got.IsArchived {
		t.Fatalf("unexpected flags after re-archive %+v", got)
	}
}
