package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/assetdesk/problem-report-service/internal/domain"
)

// ReportCache caches report detail reads. Implementations are best-effort:
// a cache miss or error falls back to the repository.
type ReportCache interface {
	Get(ctx context.Context, reportID string) (*domain.ProblemReport, bool)
	Set(ctx context.Context, report *domain.ProblemReport)
	Invalidate(ctx context.Context, reportID string)
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisReportCache builds a Redis-backed report cache.
func NewRedisReportCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) ReportCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisReportCache{client: client, ttl: ttl, logger: logger}
}

func reportCacheKey(reportID string) string {
	return "report:" + reportID
}

func (c *redisReportCache) Get(ctx context.Context, reportID string) (*domain.ProblemReport, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, reportCacheKey(reportID)).Bytes()
	if err != nil {
		return nil, false
	}
	var report domain.ProblemReport
	if err := json.Unmarshal(raw, &report); err != nil {
		c.logger.Warn("corrupt report cache entry", zap.String("report_id", reportID), zap.Error(err))
		return nil, false
	}
	return &report, true
}

func (c *redisReportCache) Set(ctx context.Context, report *domain.ProblemReport) {
	if c.client == nil || report == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, reportCacheKey(report.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("report cache set failed", zap.String("report_id", report.ID), zap.Error(err))
	}
}

func (c *redisReportCache) Invalidate(ctx context.Context, reportID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, reportCacheKey(reportID)).Err(); err != nil {
		c.logger.Warn("report cache invalidate failed", zap.String("report_id", reportID), zap.Error(err))
	}
}
