package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
)

const (
	dashboardCacheKey   = "ledger:dashboard:summary"
	dashboardVersionKey = "ledger:dashboard:version"
)

// DashboardService aggregates the overview statistics and recent activity.
type DashboardService interface {
	CacheInvalidator
	Summary(ctx context.Context) (dto.DashboardResponse, error)
}

type dashboardService struct {
	students repository.StudentRepository
	logs     repository.LessonLogRepository
	reviews  repository.ReviewRepository
	archives repository.ArchiveRepository
	cache    *redis.Client
	cacheTTL time.Duration
	location *time.Location
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDashboardService constructs the dashboard service. A nil cache disables caching.
func NewDashboardService(students repository.StudentRepository, logs repository.LessonLogRepository, reviews repository.ReviewRepository, archives repository.ArchiveRepository, cache *redis.Client, ttl time.Duration, location *time.Location, logger zerolog.Logger) DashboardService {
	if location == nil {
		location = time.Local
	}
	return &dashboardService{
		students: students,
		logs:     logs,
		reviews:  reviews,
		archives: archives,
		cache:    cache,
		cacheTTL: ttl,
		location: location,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
		now:      time.Now,
	}
}

// Summary is cached per cache version. Invalidate bumps the version, so a fill
// that started before a mutation is stored under a key no reader uses again.
func (s *dashboardService) Summary(ctx context.Context) (dto.DashboardResponse, error) {
	version, cacheable := s.cacheVersion(ctx)
	if cacheable {
		if response, ok := s.cached(ctx, version); ok {
			return response, nil
		}
	}

	now := s.now()
	response, err := s.compute(ctx, now)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	if cacheable {
		s.store(ctx, version, response, now)
	}
	return response, nil
}

func (s *dashboardService) compute(ctx context.Context, now time.Time) (dto.DashboardResponse, error) {
	students, err := s.students.All(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	since := ledger.StartOfDay(now, s.location).UTC()
	today, _, err := s.logs.List(ctx, repository.LessonLogFilter{Type: string(ledger.Consume), Since: &since})
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	recentLogs, err := s.logs.Recent(ctx, ledger.RecentLimit)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	recentReviews, err := s.reviews.Recent(ctx, ledger.RecentLimit)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	counts, err := s.archives.CountByStudent(ctx)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	lowBalance := ledger.LowBalanceStudents(students)
	lowResponses := make([]dto.StudentResponse, 0, len(lowBalance))
	for _, student := range lowBalance {
		lowResponses = append(lowResponses, dto.NewStudentResponse(student, counts[student.ID]))
	}

	return dto.DashboardResponse{
		Stats:         ledger.ComputeStats(students, today, now, s.location),
		LowBalance:    lowResponses,
		RecentLogs:    dto.NewLessonLogResponses(recentLogs),
		RecentReviews: dto.NewReviewResponses(recentReviews),
		GeneratedAt:   now.UTC(),
	}, nil
}

// cacheVersion reads the current cache generation. Caching is skipped when
// there is no client or the version cannot be read.
func (s *dashboardService) cacheVersion(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	version, err := s.cache.Get(ctx, dashboardVersionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		s.logger.Warn().Err(err).Msg("failed to read dashboard cache version")
		return 0, false
	}
	return version, true
}

func (s *dashboardService) cached(ctx context.Context, version int64) (dto.DashboardResponse, bool) {
	raw, err := s.cache.Get(ctx, summaryKey(version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
		return dto.DashboardResponse{}, false
	}
	var response dto.DashboardResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return dto.DashboardResponse{}, false
	}
	s.logger.Debug().Int64("version", version).Msg("dashboard cache hit")
	return response, true
}

func (s *dashboardService) store(ctx context.Context, version int64, response dto.DashboardResponse, now time.Time) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, summaryKey(version), payload, s.ttlAt(now)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
	}
}

// ttlAt caps the cache lifetime at the next local midnight, when today's
// consumption count resets.
func (s *dashboardService) ttlAt(now time.Time) time.Duration {
	untilMidnight := ledger.StartOfDay(now, s.location).AddDate(0, 0, 1).Sub(now)
	if untilMidnight <= 0 {
		untilMidnight = time.Second
	}
	if s.cacheTTL > 0 && s.cacheTTL < untilMidnight {
		return s.cacheTTL
	}
	return untilMidnight
}

// Invalidate moves readers to a new cache version; failures are logged and ignored.
func (s *dashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, dashboardVersionKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}

func summaryKey(version int64) string {
	return dashboardCacheKey + ":" + strconv.FormatInt(version, 10)
}
