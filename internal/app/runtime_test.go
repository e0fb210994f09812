package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
	"folio/internal/search"
	"folio/internal/store"
)

func TestOpenRuntimeWithRedisSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	cfg := config.Config{
		DatabaseDriver: "sqlite",
		DatabaseURL:    filepath.Join(t.TempDir(), "rt.db"),
		RedisURL:       "redis://" + mr.Addr(),
		CandidateTTL:   time.Minute,
		SiteName:       "Folio",
	}

	rt, err := OpenRuntime(ctx, cfg)
	require.NoError(t, err, "open runtime")
	defer rt.Close()
	assert.NotNil(t, rt.Redis)
	assert.Nil(t, rt.Meili)
	assert.Nil(t, rt.Media)
	require.NoError(t, store.ApplyMigrations(ctx, rt.DB, rt.Dialect))

	svc := rt.Service(cfg)
	_, err = svc.CreatePost(ctx, PostBody{Title: "Go tips", Category: "general", Content: json.RawMessage(`"<p>x</p>"`), Published: true})
	require.NoError(t, err)
	got := svc.SearchMentions(ctx, "go")
	require.Len(t, got, 1)
	assert.Equal(t, "Go tips", got[0].Title)
	assert.True(t, mr.Exists(search.SnapshotKey), "expected snapshot under %s", search.SnapshotKey)

	_, err = svc.CreatePost(ctx, PostBody{Title: "Go more", Category: "general", Content: json.RawMessage(`"<p>y</p>"`), Published: true})
	require.NoError(t, err)
	assert.False(t, mr.Exists(search.SnapshotKey), "snapshot should be invalidated after a write")
	assert.Len(t, svc.SearchMentions(ctx, "go"), 2)
}

func TestOpenRuntimeRejectsUnknownDriver(t *testing.T) {
	_, err := OpenRuntime(context.Background(), config.Config{DatabaseDriver: "oracle"})
	assert.Error(t, err)
}
