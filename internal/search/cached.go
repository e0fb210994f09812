package search

import (
	"context"
	"log"
	"time"
)

// SnapshotKey is the cache key of the published article snapshot.
const SnapshotKey = "folio:candidates:published"

// DefaultSnapshotTTL bounds how stale the published snapshot may get when a
// write's invalidation is lost.
const DefaultSnapshotTTL = 60 * time.Second

// SnapshotCache is a key -> (value, expiry) store.
type SnapshotCache interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// CachedSource caches the published article list. Lookups by id always go
// to the underlying source.
type CachedSource struct {
	source Source
	cache  SnapshotCache
	ttl    time.Duration
}

// NewCachedSource wraps source. A ttl <= 0 uses DefaultSnapshotTTL.
func NewCachedSource(source Source, cache SnapshotCache, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &CachedSource{source: source, cache: cache, ttl: ttl}
}

// ListPublishedArticles serves the snapshot from cache, refilling it from
// the source on a miss. Cache failures fall through to the source.
func (c *CachedSource) ListPublishedArticles(ctx context.Context) ([]Article, error) {
	var articles []Article
	hit, err := c.cache.Load(ctx, SnapshotKey, &articles)
	if err != nil {
		log.Printf("search: candidate cache load: %v", err)
	}
	if hit && err == nil {
		return articles, nil
	}

	articles, err = c.source.ListPublishedArticles(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Save(ctx, SnapshotKey, articles, c.ttl); err != nil {
		log.Printf("search: candidate cache save: %v", err)
	}
	return articles, nil
}

// GetPublishedArticle implements Source.
func (c *CachedSource) GetPublishedArticle(ctx context.Context, id string) (Article, error) {
	return c.source.GetPublishedArticle(ctx, id)
}

// Invalidate drops the snapshot; called after every post write.
func (c *CachedSource) Invalidate(ctx context.Context) {
	if err := c.cache.Invalidate(ctx, SnapshotKey); err != nil {
		log.Printf("search: candidate cache invalidate: %v", err)
	}
}
