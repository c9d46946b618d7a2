package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/innologic/company-service/internal/logger"
	"github.com/innologic/company-service/internal/metrics"
	"github.com/innologic/company-service/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is a redis-backed read cache for company and location queries.
// Invalidation is coarse: any mutation touching a company drops every cached
// entry for it. A nil Cache (or nil client) disables caching entirely, which
// is how the tests run.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// LocationPage is the cached shape of one locations listing page.
type LocationPage struct {
	Locations []models.Location `json:"locations"`
	Total     int64             `json:"total"`
}

// New creates a Cache around an existing redis client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func companyKey(companyID string) string {
	return "company:" + companyID
}

func locationsPrefix(companyID string) string {
	return "locations:" + companyID + "|"
}

// LocationsKey builds the cache key for one locations listing page.
func LocationsKey(companyID, status string, page, limit int) string {
	return fmt.Sprintf("%s%s|%d|%d", locationsPrefix(companyID), status, page, limit)
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// GetCompany returns a cached company, or false on miss. Redis errors are
// logged and degrade to a miss so reads fall through to the database.
func (c *Cache) GetCompany(ctx context.Context, companyID string) (*models.Company, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, companyKey(companyID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Get().Warn("cache read failed", zap.String("key", companyKey(companyID)), zap.Error(err))
		}
		metrics.RecordCacheMiss("company")
		return nil, false
	}
	var company models.Company
	if err := json.Unmarshal(data, &company); err != nil {
		metrics.RecordCacheMiss("company")
		return nil, false
	}
	metrics.RecordCacheHit("company")
	return &company, true
}

// SetCompany caches a company.
func (c *Cache) SetCompany(ctx context.Context, company *models.Company) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(company)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, companyKey(company.CompanyID), data, c.ttl).Err(); err != nil {
		logger.Get().Warn("cache write failed", zap.String("key", companyKey(company.CompanyID)), zap.Error(err))
	}
}

// GetLocationPage returns a cached locations page, or false on miss.
func (c *Cache) GetLocationPage(ctx context.Context, key string) (*LocationPage, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Get().Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.RecordCacheMiss("locations")
		return nil, false
	}
	var page LocationPage
	if err := json.Unmarshal(data, &page); err != nil {
		metrics.RecordCacheMiss("locations")
		return nil, false
	}
	metrics.RecordCacheHit("locations")
	return &page, true
}

// SetLocationPage caches a locations page.
func (c *Cache) SetLocationPage(ctx context.Context, key string, page *LocationPage) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Get().Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateCompany drops every cached entry for a company. Every command
// path must call this on success before returning to the caller, so a
// follow-up read never observes state that contradicts a just-enforced
// invariant.
func (c *Cache) InvalidateCompany(ctx context.Context, companyID string) {
	if !c.enabled() {
		return
	}
	keys := []string{companyKey(companyID)}

	iter := c.client.Scan(ctx, 0, locationsPrefix(companyID)+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Get().Warn("cache scan failed", zap.String("company_id", companyID), zap.Error(err))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Get().Warn("cache invalidation failed", zap.String("company_id", companyID), zap.Error(err))
	}
}
