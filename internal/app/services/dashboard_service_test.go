package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
)

func TestDashboardStatsCachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	related := true
	f.store.Seed(&models.Alumni{StudentNumber: "S-1", FullName: "A", IsActive: true, JobStatus: models.JobStatusEmployed, IsRelated: &related, GraduatedYear: "2020"})
	f.store.Seed(&models.Alumni{StudentNumber: "S-2", FullName: "B", IsActive: true})
	svc := services.NewDashboardService(f.store, time.Minute, f.clock, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if first.TotalActive != 2 || first.Related != 1 || first.ByGraduationYear["unspecified"] != 1 || !first.GeneratedAt.Equal(baseTime) {
		t.Fatalf("unexpected stats %+v", first)
	}

	f.seed("S-3", "C", "")
	f.store.Err = apperrors.ErrStoreUnavailable
	cached, err := svc.Stats(ctx)
	if err != nil || cached.TotalActive != 2 {
		t.Fatalf("expected cached stats, got %+v, %v", cached, err)
	}

	svc.Invalidate()
	if _, err := svc.Stats(ctx); !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("expected recompute after invalidation, got %v", err)
	}

	f.store.Err = nil
	fresh, err := svc.Stats(ctx)
	if err != nil || fresh.TotalActive != 3 {
		t.Fatalf("expected fresh stats, got %+v, %v", fresh, err)
	}
}
