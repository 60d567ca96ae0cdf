package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

func TestComputeCompletionFull(t *testing.T) {
	status := services.ComputeCompletion(completeAlumni())
	if status.CompletedSections != 3 || status.TotalSections != 3 {
		t.Fatalf("expected 3/3, got %d/%d", status.CompletedSections, status.TotalSections)
	}
	if len(status.MissingFields) != 0 {
		t.Fatalf("expected no missing fields, got %v", status.MissingFields)
	}
}

func TestComputeCompletionPersonalIndependence(t *testing.T) {
	clearers := map[string]func(*models.Alumni){
		"student_number": func(a *models.Alumni) { a.StudentNumber = "" },
		"full_name":      func(a *models.Alumni) { a.FullName = "" },
		"email":          func(a *models.Alumni) { a.Email = "" },
		"birth_month":    func(a *models.Alumni) { a.BirthMonth = "" },
		"birth_day":      func(a *models.Alumni) { a.BirthDay = "" },
		"birth_year":     func(a *models.Alumni) { a.BirthYear = "" },
		"contact":        func(a *models.Alumni) { a.Contact = "   " },
		"street":         func(a *models.Alumni) { a.Street = "" },
		"province":       func(a *models.Alumni) { a.Province = "" },
		"municipality":   func(a *models.Alumni) { a.Municipality = "" },
		"barangay":       func(a *models.Alumni) { a.Barangay = "" },
	}

	for name, clear := range clearers {
		t.Run(name, func(t *testing.T) {
			a := completeAlumni()
			clear(a)
			status := services.ComputeCompletion(a)
			if status.Sections.Personal {
				t.Fatalf("expected personal incomplete after clearing %s", name)
			}
			if !status.Sections.Academic || !status.Sections.Career {
				t.Fatalf("clearing %s affected another section: %+v", name, status.Sections)
			}
			if got := status.MissingFields[models.SectionPersonal]; len(got) != 1 || got[0] != name {
				t.Fatalf("expected missing [%s], got %v", name, got)
			}
		})
	}
}

func TestComputeCompletionUnrelatedFieldDoesNotAffectPersonal(t *testing.T) {
	a := completeAlumni()
	a.Degree = ""
	a.CurrentJob = ""
	status := services.ComputeCompletion(a)
	if !status.Sections.Personal {
		t.Fatalf("expected personal complete")
	}
	if status.Sections.Academic || status.Sections.Career {
		t.Fatalf("expected academic and career incomplete, got %+v", status.Sections)
	}
	if status.CompletedSections != 1 {
		t.Fatalf("expected 1 completed section, got %d", status.CompletedSections)
	}
}

func TestComputeCompletionIsRelated(t *testing.T) {
	a := completeAlumni()
	no := false
	a.IsRelated = &no
	if !services.ComputeCompletion(a).Sections.Career {
		t.Fatalf("expected explicit false to count as answered")
	}

	a.IsRelated = nil
	status := services.ComputeCompletion(a)
	if status.Sections.Career {
		t.Fatalf("expected unanswered is_related to leave career incomplete")
	}
	if got := status.MissingFields[models.SectionCareer]; len(got) != 1 || got[0] != "is_related" {
		t.Fatalf("expected missing [is_related], got %v", got)
	}
}

func TestCompletionServiceLookupFailure(t *testing.T) {
	f := newFixture(t)
	svc := services.NewCompletionService(f.store, f.forms, f.audit, f.clock, zerolog.Nop())

	if _, err := svc.GetCompletion(context.Background(), 404); !errors.Is(err, apperrors.ErrAlumniNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	f.store.Err = apperrors.ErrStoreUnavailable
	status, err := svc.GetCompletion(context.Background(), 1)
	if err == nil || status != nil {
		t.Fatalf("expected error and no status, got %+v, %v", status, err)
	}
}

func TestMarkFormComplete(t *testing.T) {
	f := newFixture(t)
	a := f.seed("2019-200", "Carla", "")
	svc := services.NewCompletionService(f.store, f.forms, f.audit, f.clock, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.MarkFormComplete(ctx, a.ID, "hobbies", staff); !errors.Is(err, apperrors.ErrInvalidFormType) {
		t.Fatalf("expected invalid form type, got %v", err)
	}

	for i := 0; i < 2; i++ {
		fc, err := svc.MarkFormComplete(ctx, a.ID, models.FormCareerInfo, staff)
		if err != nil {
			t.Fatalf("mark complete: %v", err)
		}
		if !fc.IsCompleted || fc.CompletedAt == nil || !fc.CompletedAt.Equal(baseTime) {
			t.Fatalf("unexpected row %+v", fc)
		}
	}

	forms, err := svc.ListFormCompletions(ctx, a.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(forms) != 1 {
		t.Fatalf("expected a single upserted row, got %d", len(forms))
	}
	if got := f.audit.last(t).Action; got != models.ActionFormCompleted {
		t.Fatalf("expected %s, got %s", models.ActionFormCompleted, got)
	}
}
