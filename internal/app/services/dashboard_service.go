package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
)

var (
	statsCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alumnitrack_stats_cache_hits_total",
		Help: "Dashboard statistics served from cache.",
	})
	statsCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alumnitrack_stats_cache_misses_total",
		Help: "Dashboard statistics recomputed from the record store.",
	})
)

const statsCacheKey = "dashboard"

// DashboardService serves aggregate alumni counts
type DashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	Invalidate()
}

type dashboardServiceImpl struct {
	alumniRepo repositories.AlumniStore
	cache      *expirable.LRU[string, *models.DashboardStats]
	clock      helpers.Clock
	logger     zerolog.Logger
}

// NewDashboardService creates a DashboardService caching results for ttl
func NewDashboardService(alumniRepo repositories.AlumniStore, ttl time.Duration, clock helpers.Clock, logger zerolog.Logger) DashboardService {
	return &dashboardServiceImpl{
		alumniRepo: alumniRepo,
		cache:      expirable.NewLRU[string, *models.DashboardStats](1, nil, ttl),
		clock:      clock,
		logger:     logger,
	}
}

// Stats returns cached statistics or recomputes them
func (s *dashboardServiceImpl) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if stats, ok := s.cache.Get(statsCacheKey); ok {
		statsCacheHitsTotal.Inc()
		return stats, nil
	}
	statsCacheMissesTotal.Inc()

	stats, err := s.alumniRepo.DashboardStats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute dashboard statistics")
		return nil, fmt.Errorf("error computing dashboard statistics: %w", err)
	}
	stats.GeneratedAt = s.clock.Now()
	s.cache.Add(statsCacheKey, stats)
	return stats, nil
}

// Invalidate drops the cached statistics
func (s *dashboardServiceImpl) Invalidate() {
	s.cache.Remove(statsCacheKey)
}
