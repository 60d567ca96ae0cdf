package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

func TestCreateAlumniRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.seed("S-1", "Ana Cruz", "ana@x.com")
	ctx := context.Background()

	_, err := f.alumni.Create(ctx, &models.Alumni{StudentNumber: "S-2", FullName: "Other", Email: "ana@x.com"}, staff)
	if !errors.Is(err, apperrors.ErrAlumniAlreadyExists) || apperrors.Message(err) != "Alumni already exists: Ana Cruz" {
		t.Fatalf("expected duplicate, got %v", err)
	}

	created, err := f.alumni.Create(ctx, &models.Alumni{StudentNumber: "S-2", FullName: "Ben Reyes"}, staff)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.IsActive || created.IsArchived {
		t.Fatalf("expected active record, got %+v", created)
	}
	if f.audit.last(t).Action != models.ActionAlumniCreated || f.stats.count() != 1 {
		t.Fatalf("expected audit and cache invalidation")
	}

	if _, err := f.alumni.Create(ctx, &models.Alumni{FullName: "No Number"}, staff); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateAlumniExcludesSelf(t *testing.T) {
	f := newFixture(t)
	ana := f.seed("S-1", "Ana Cruz", "ana@x.com")
	f.seed("S-2", "Ben Reyes", "ben@x.com")
	ctx := context.Background()

	updated, err := f.alumni.Update(ctx, ana.ID, &models.Alumni{StudentNumber: "S-1", FullName: "Ana Cruz", Email: "ana@x.com", Major: "Math"}, staff)
	if err != nil {
		t.Fatalf("update with own keys: %v", err)
	}
	if updated.Major != "Math" {
		t.Fatalf("expected major updated, got %+v", updated)
	}
	if got := f.audit.last(t).Details; got != `Updated profile: {"major":"Math"}` {
		t.Fatalf("unexpected details %q", got)
	}

	_, err = f.alumni.Update(ctx, ana.ID, &models.Alumni{StudentNumber: "S-2", FullName: "Ana Cruz"}, staff)
	if !errors.Is(err, apperrors.ErrAlumniAlreadyExists) {
		t.Fatalf("expected duplicate against another record, got %v", err)
	}
}

func TestUpdateKeepsLifecycleFlags(t *testing.T) {
	f := newFixture(t)
	ana := f.seed("S-1", "Ana Cruz", "ana@x.com")
	ctx := context.Background()
	if err := f.lifecycle.Archive(ctx, ana.ID, "Graduated long ago", staff); err != nil {
		t.Fatalf("archive: %v", err)
	}

	updated, err := f.alumni.Update(ctx, ana.ID, &models.Alumni{StudentNumber: "S-1", FullName: "Ana C."}, staff)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsArchived || updated.ArchivedAt == nil {
		t.Fatalf("expected archive state preserved, got %+v", updated)
	}
	if !strings.Contains(f.audit.last(t).Details, `"full_name":"Ana C."`) {
		t.Fatalf("expected full_name change in details")
	}
}

func TestListReturnsCompletion(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(completeAlumni())
	f.seed("S-9", "Partial", "")

	records, completions, total, err := f.alumni.List(context.Background(), models.AlumniFilter{Page: 1, Size: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(records) != 2 || len(completions) != 2 {
		t.Fatalf("unexpected list result %d/%d/%d", total, len(records), len(completions))
	}
	for i, r := range records {
		if completions[i].AlumniID != r.ID {
			t.Fatalf("completion %d does not match record %d", i, r.ID)
		}
	}
}
