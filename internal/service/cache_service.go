package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jinjin-academy/schedule-api/internal/models"
)

// EntryCache is an optional Redis read cache for schedule entry lists.
// A nil receiver or nil client disables caching entirely; cache failures are
// logged and never surfaced, reads fall through to storage.
type EntryCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewEntryCache constructs the cache wrapper. metrics may be nil.
func NewEntryCache(client *redis.Client, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *EntryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryCache{client: client, ttl: ttl, metrics: metrics, logger: logger}
}

func entryCacheKey(templateID string) string {
	return fmt.Sprintf("schedule:entries:%s", templateID)
}

// GetEntries returns the cached entry list for a template when present.
func (c *EntryCache) GetEntries(ctx context.Context, templateID string) ([]models.ScheduleEntry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, entryCacheKey(templateID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("entry cache read failed", zap.Error(err))
		}
		c.metrics.RecordCacheLookup(false)
		return nil, false
	}
	var entries []models.ScheduleEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("entry cache payload corrupt", zap.Error(err))
		c.metrics.RecordCacheLookup(false)
		return nil, false
	}
	c.metrics.RecordCacheLookup(true)
	return entries, true
}

// SetEntries stores the entry list for a template.
func (c *EntryCache) SetEntries(ctx context.Context, templateID string, entries []models.ScheduleEntry) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("entry cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, entryCacheKey(templateID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("entry cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached entry list after any write to the template.
func (c *EntryCache) Invalidate(ctx context.Context, templateID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, entryCacheKey(templateID)).Err(); err != nil {
		c.logger.Warn("entry cache invalidation failed", zap.Error(err))
	}
}
