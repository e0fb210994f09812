package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"folio/internal/cache"
	"folio/internal/config"
	"folio/internal/media"
	"folio/internal/search"
	"folio/internal/store"
)

// Runtime holds the backing services both binaries run on.
type Runtime struct {
	Dialect  store.Dialect
	DB       *sql.DB
	Posts    *store.SQLStore
	Snapshot *search.CachedSource
	Search   *search.Service
	Meili    *search.Meili
	Redis    *cache.Redis
	Media    *media.MinioStore
}

// OpenRuntime connects the database and the optional Redis, Meilisearch and
// MinIO backends named in cfg. It does not apply migrations.
func OpenRuntime(ctx context.Context, cfg config.Config) (*Runtime, error) {
	dialect, err := store.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt := &Runtime{Dialect: dialect, DB: db, Posts: store.NewSQLStore(db, dialect)}

	var snapshotCache search.SnapshotCache = cache.NewMemory()
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		rt.Redis = redisCache
		snapshotCache = redisCache
	}
	rt.Snapshot = search.NewCachedSource(rt.Posts, snapshotCache, cfg.CandidateTTL)

	if strings.TrimSpace(cfg.MeiliURL) != "" {
		rt.Meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	rt.Search = search.NewService(rt.Meili, rt.Snapshot)

	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		m, err := media.NewMinioStore(media.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			rt.Close()
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			log.Printf("app: image bucket not ready: %v", err)
		}
		rt.Media = m
	}
	return rt, nil
}

// Service builds the HTTP service over the runtime.
func (rt *Runtime) Service(cfg config.Config) *Service {
	svc := New(cfg, rt.Posts, rt.Search).WithSnapshot(rt.Snapshot)
	if rt.Media != nil {
		svc.WithMedia(rt.Media)
	}
	return svc
}

func (rt *Runtime) Close() {
	if rt.Meili != nil {
		rt.Meili.Close()
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			log.Printf("app: close redis: %v", err)
		}
	}
	if rt.DB != nil {
		_ = rt.DB.Close()
	}
}
