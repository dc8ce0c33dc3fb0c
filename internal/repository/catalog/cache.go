// Package catalog caches the search category tree in a key-value store.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/db"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
)

// DefaultTTL bounds how stale a cached category list may get.
const DefaultTTL = 10 * time.Minute

// Source is the uncached category provider.
type Source interface {
	Categories(ctx context.Context, typ filter.Type) ([]listing.Category, error)
	Subcategories(ctx context.Context, typ filter.Type, categoryID int64) ([]listing.Subcategory, error)
}

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached serves categories from the store and falls back to the source.
// Store failures degrade to a cache miss; only source errors are returned.
type Cached struct {
	inner      Source
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Source,
	s store,
	keyPrefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{
		inner:      inner,
		store:      s,
		prefix:     keyPrefix + "catalog:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Categories returns the categories for typ.
func (c *Cached) Categories(ctx context.Context, typ filter.Type) ([]listing.Category, error) {
	key := c.prefix + "categories:" + typeKey(typ)

	var cats []listing.Category
	if c.get(ctx, key, &cats) {
		return cats, nil
	}

	cats, err := c.inner.Categories(ctx, typ)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, cats)
	return cats, nil
}

// Subcategories returns the children of categoryID.
func (c *Cached) Subcategories(ctx context.Context, typ filter.Type, categoryID int64) ([]listing.Subcategory, error) {
	key := c.prefix + "subcategories:" + typeKey(typ) + ":" + strconv.FormatInt(categoryID, 10)

	var subs []listing.Subcategory
	if c.get(ctx, key, &subs) {
		return subs, nil
	}

	subs, err := c.inner.Subcategories(ctx, typ, categoryID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, subs)
	return subs, nil
}

func typeKey(typ filter.Type) string {
	if typ == "" {
		return string(filter.TypeAll)
	}
	return string(typ)
}

func (c *Cached) get(ctx context.Context, key string, dst any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached catalog", zap.String("key", key), zap.Error(err))
		}
		c.inc("miss")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Failed to parse cached catalog", zap.String("key", key), zap.Error(err))
		c.inc("miss")
		return false
	}
	c.inc("hit")
	return true
}

func (c *Cached) put(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode catalog", zap.String("key", key), zap.Error(fmt.Errorf("marshal: %w", err)))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache catalog", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cached) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
