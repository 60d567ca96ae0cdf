package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

func TestCheckExists(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("2019-001", "Ana Cruz", "a@x.com")
	ctx := context.Background()

	check, err := f.guard.CheckExists(ctx, "a@x.com", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !check.Exists || check.Matched == nil || check.Matched.ID != existing.ID {
		t.Fatalf("expected match on record %d, got %+v", existing.ID, check)
	}

	check, err = f.guard.CheckExists(ctx, "a@x.com", "", &existing.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Exists {
		t.Fatalf("expected no match when excluding the record itself, got %+v", check)
	}

	check, err = f.guard.CheckExists(ctx, "", "2019-001", nil)
	if err != nil || !check.Exists {
		t.Fatalf("expected student number match, got %+v, %v", check, err)
	}
}

func TestCheckExistsBothEmptySkipsStore(t *testing.T) {
	f := newFixture(t)
	f.store.Err = errors.New("store down")

	check, err := f.guard.CheckExists(context.Background(), "  ", "", nil)
	if err != nil {
		t.Fatalf("expected no error for empty input, got %v", err)
	}
	if check.Exists {
		t.Fatalf("expected exists=false for empty input")
	}
	if f.store.Lookups != 0 {
		t.Fatalf("expected no store lookups, got %d", f.store.Lookups)
	}
}

func TestCheckExistsFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.store.Err = apperrors.ErrStoreUnavailable

	if _, err := f.guard.CheckExists(context.Background(), "a@x.com", "", nil); !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("expected store error, got %v", err)
	}

	_, err := f.alumni.Create(context.Background(), &models.Alumni{StudentNumber: "1", FullName: "Ana"}, staff)
	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("expected create to be refused with store error, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected nothing written")
	}
}

func TestArchivedRecordsStillOwnTheirKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed("2019-009", "Ben Reyes", "ben@x.com")
	if err := f.lifecycle.Archive(ctx, a.ID, "", staff); err != nil {
		t.Fatalf("archive: %v", err)
	}

	_, err := f.alumni.Create(ctx, &models.Alumni{StudentNumber: "other", FullName: "Ben Two", Email: "ben@x.com"}, staff)
	if !errors.Is(err, apperrors.ErrAlumniAlreadyExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if got := apperrors.Message(err); got != "Alumni already exists: Ben Reyes" {
		t.Fatalf("expected message naming the match, got %q", got)
	}
}

func TestFindDuplicateGroups(t *testing.T) {
	f := newFixture(t)
	a := f.seed("2019-100", "One", "dup@x.com")
	b := f.store.Seed(&models.Alumni{StudentNumber: "2019-101", FullName: "Two", Email: "dup@x.com"})
	f.seed("2019-102", "Three", "three@x.com")

	groups, err := f.guard.FindDuplicateGroups(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %+v", groups)
	}
	if groups[0].Field != "email" || len(groups[0].AlumniIDs) != 2 ||
		groups[0].AlumniIDs[0] != a.ID || groups[0].AlumniIDs[1] != b.ID {
		t.Fatalf("unexpected group %+v", groups[0])
	}
}
