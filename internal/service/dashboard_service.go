package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-request-service/internal/domain"
	"github.com/spec-kit/civic-request-service/internal/repository"
	apperrors "github.com/spec-kit/civic-request-service/pkg/util"
)

const dashboardCacheKey = "dashboard:public"

// DashboardService materializes the analytics snapshot. The public dashboard
// is cached in Redis for a short TTL; cache failures degrade to a fresh
// computation and are only logged.
type DashboardService struct {
	requests   repository.RequestRepository
	categories repository.CategoryRepository
	cache      *redis.Client
	logger     *zap.Logger
	cacheTTL   time.Duration

	now func() time.Time
}

// NewDashboardService constructs the service. cache may be nil to disable
// caching entirely.
func NewDashboardService(requests repository.RequestRepository, categories repository.CategoryRepository, cache *redis.Client, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &DashboardService{
		requests:   requests,
		categories: categories,
		cache:      cache,
		logger:     logger,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

// PublicDashboard returns the aggregate dashboard, served from cache when
// fresh enough.
func (s *DashboardService) PublicDashboard(ctx context.Context) (*DashboardStats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	snapshot, err := s.requests.Snapshot(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := BuildDashboard(s.now(), snapshot, categories, domain.Statuses())
	s.toCache(ctx, &stats)
	return &stats, nil
}

// SLAReport returns the deadline-bearing requests with breach totals.
func (s *DashboardService) SLAReport(ctx context.Context) (*SLAReport, error) {
	snapshot, err := s.requests.Snapshot(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report := BuildSLAReport(snapshot)
	return &report, nil
}

func (s *DashboardService) fromCache(ctx context.Context) *DashboardStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}
	var stats DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("dashboard cache decode failed", zap.Error(err))
		return nil
	}
	return &stats
}

func (s *DashboardService) toCache(ctx context.Context, stats *DashboardStats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		s.logger.Warn("dashboard cache encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}
