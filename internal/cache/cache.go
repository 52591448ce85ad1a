// Package cache keeps the last good catalog in Redis so a cycle can go on
// with a stale unit list when the catalog API is down.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/units"
)

const keyPrefix = "staymap:catalog"

// Open parses a redis:// URL and checks the connection.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.NewConfigError("redis", "invalid Redis URL", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.WrapResource("connect", "redis", "", err)
	}
	return rdb, nil
}

type entry struct {
	StoredAt time.Time    `json:"stored_at"`
	Units    []units.Unit `json:"units"`
}

// CatalogCache stores catalog snapshots per region filter.
type CatalogCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewCatalogCache creates a cache. A non-positive ttl uses the default.
func NewCatalogCache(rdb redis.Cmdable, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = constants.CatalogCacheTTL
	}
	return &CatalogCache{rdb: rdb, ttl: ttl}
}

// Store saves list as the last good catalog for filter.
func (c *CatalogCache) Store(ctx context.Context, filter units.RegionFilter, list []units.Unit) error {
	raw, err := json.Marshal(entry{StoredAt: time.Now().UTC(), Units: list})
	if err != nil {
		return errors.WrapParse("json", "catalog cache", err)
	}
	if err := c.rdb.Set(ctx, Key(filter), raw, c.ttl).Err(); err != nil {
		return errors.WrapResource("store", "catalog cache", Key(filter), err)
	}
	return nil
}

// Load returns the last good catalog for filter and when it was stored.
// A missing or expired entry is a NotFoundError.
func (c *CatalogCache) Load(ctx context.Context, filter units.RegionFilter) ([]units.Unit, time.Time, error) {
	raw, err := c.rdb.Get(ctx, Key(filter)).Bytes()
	if err == redis.Nil {
		return nil, time.Time{}, errors.NewNotFoundError("catalog cache", Key(filter))
	}
	if err != nil {
		return nil, time.Time{}, errors.WrapResource("load", "catalog cache", Key(filter), err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, time.Time{}, errors.WrapParse("json", "catalog cache", err)
	}
	return e.Units, e.StoredAt, nil
}

// Key returns the cache key for a region filter.
func Key(filter units.RegionFilter) string {
	if filter.IsEmpty() {
		return keyPrefix + ":all"
	}
	parts := []string{
		"c=" + strings.ToLower(strings.Join(filter.Countries, ",")),
		"city=" + strings.ToLower(strings.Join(filter.Cities, ",")),
		"n=" + strings.ToLower(strings.Join(filter.NameTokens, ",")),
	}
	return keyPrefix + ":" + strings.Join(parts, ";")
}

// FallbackCatalog wraps a catalog: every successful fetch refreshes the
// cache, and a failed fetch is answered from the cache when it holds an
// entry for the same filter. A partial listing is passed through as is and
// never cached.
type FallbackCatalog struct {
	next  sources.UnitCatalog
	cache *CatalogCache
}

var _ sources.UnitCatalog = (*FallbackCatalog)(nil)

// NewFallbackCatalog wraps next.
func NewFallbackCatalog(next sources.UnitCatalog, cache *CatalogCache) *FallbackCatalog {
	return &FallbackCatalog{next: next, cache: cache}
}

// FetchAllUnits implements sources.UnitCatalog.
func (f *FallbackCatalog) FetchAllUnits(ctx context.Context, filter units.RegionFilter) ([]units.Unit, error) {
	logger := logging.FromContext(logging.WithSource(ctx, sources.Catalog.String()))

	list, err := f.next.FetchAllUnits(ctx, filter)
	if err == nil {
		if cerr := f.cache.Store(ctx, filter, list); cerr != nil {
			logger.Warn().Err(cerr).Msg("Catalog cache refresh failed")
		}
		return list, nil
	}
	if errors.IsPartial(err) {
		return list, err
	}
	if errors.IsAuthConfig(err) || ctx.Err() != nil {
		return nil, err
	}

	cached, storedAt, cerr := f.cache.Load(ctx, filter)
	if cerr != nil {
		logger.Debug().Err(cerr).Msg("No cached catalog")
		return nil, err
	}
	logger.Warn().Err(err).
		Time("cached_at", storedAt).
		Dur("age", time.Since(storedAt)).
		Int("units", len(cached)).
		Msg("Catalog unavailable, using cached catalog")
	return cached, nil
}
