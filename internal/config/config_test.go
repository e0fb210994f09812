package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FOLIO_CONFIG", "")
	for _, key := range []string{"API_ADDR", "DATABASE_DRIVER", "MINIO_BUCKET", "MINIO_USE_SSL", "FOLIO_MENTION_TRIGGER", "FOLIO_CANDIDATE_CACHE_TTL_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8787", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "blog-images", cfg.MinioBucket)
	assert.False(t, cfg.MinioUseSSL)
	assert.Equal(t, '@', cfg.MentionTrigger)
	assert.Equal(t, 60*time.Second, cfg.CandidateTTL)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("FOLIO_CONFIG", "")
	t.Setenv("API_ADDR", ":9000")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("FOLIO_CANDIDATE_CACHE_TTL_SECONDS", "5")
	t.Setenv("FOLIO_MENTION_TRIGGER", "#")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, 5*time.Second, cfg.CandidateTTL)
	assert.Equal(t, '#', cfg.MentionTrigger)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FOLIO_CONFIG", "")
	t.Setenv("FOLIO_CANDIDATE_CACHE_TTL_SECONDS", "soon")
	t.Setenv("MINIO_USE_SSL", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.CandidateTTL)
	assert.False(t, cfg.MinioUseSSL)
}

func TestLoadRejectsLongTrigger(t *testing.T) {
	t.Setenv("FOLIO_CONFIG", "")
	t.Setenv("FOLIO_MENTION_TRIGGER", "@@")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	body := "api_addr: \":7000\"\nFOLIO_SITE_NAME: Notes\nMINIO_USE_SSL: true\nFOLIO_CANDIDATE_CACHE_TTL_SECONDS: 30\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("FOLIO_CONFIG", path)
	t.Setenv("API_ADDR", "")
	t.Setenv("FOLIO_SITE_NAME", "Override")
	t.Setenv("MINIO_USE_SSL", "")
	t.Setenv("FOLIO_CANDIDATE_CACHE_TTL_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "Override", cfg.SiteName)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, 30*time.Second, cfg.CandidateTTL)
}

func TestLoadFileErrors(t *testing.T) {
	t.Setenv("FOLIO_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o600))
	t.Setenv("FOLIO_CONFIG", path)
	_, err = Load()
	assert.Error(t, err)
}
