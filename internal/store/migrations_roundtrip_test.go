package store

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsRoundTripPostgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("FOLIO_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("FOLIO_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := Open(ctx, Postgres, dsn)
	require.NoError(t, err, "open postgres")
	defer db.Close()

	require.NoError(t, resetPublicSchema(ctx, db), "reset schema")
	require.NoError(t, ApplyMigrations(ctx, db, Postgres), "apply up migrations (pass 1)")
	require.NoError(t, applyDownMigrations(ctx, db, Postgres), "apply down migrations")
	_, err = db.ExecContext(ctx, `DELETE FROM schema_migrations`)
	require.NoError(t, err, "clear schema_migrations")
	require.NoError(t, ApplyMigrations(ctx, db, Postgres), "apply up migrations (pass 2)")

	s := NewSQLStore(db, Postgres)
	p, err := s.CreatePost(ctx, PostInput{Title: "Round trip", Published: true, Content: []byte(`{"json":{"type":"doc"},"html":""}`)})
	require.NoError(t, err, "create post")
	articles, err := s.ListPublishedArticles(ctx)
	require.NoError(t, err, "list published")
	require.Len(t, articles, 1)
	assert.Equal(t, p.ID, articles[0].ID)
}

func TestMigrationsRoundTripSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, SQLite, filepath.Join(t.TempDir(), "roundtrip.db"))
	require.NoError(t, err, "open sqlite")
	defer db.Close()

	require.NoError(t, ApplyMigrations(ctx, db, SQLite), "apply up migrations (pass 1)")
	require.NoError(t, applyDownMigrations(ctx, db, SQLite), "apply down migrations")
	_, err = db.ExecContext(ctx, `DELETE FROM schema_migrations`)
	require.NoError(t, err, "clear schema_migrations")
	require.NoError(t, ApplyMigrations(ctx, db, SQLite), "apply up migrations (pass 2)")
}

func resetPublicSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	return err
}

func applyDownMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	migrations, err := Migrations(dialect)
	if err != nil {
		return err
	}
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return err
	}

	pattern := regexp.MustCompile(`^(\d+)_.*\.down\.sql$`)
	type migration struct {
		version string
		name    string
	}
	downs := make([]migration, 0)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		downs = append(downs, migration{version: match[1], name: name})
	}

	sort.Slice(downs, func(i, j int) bool {
		return downs[i].version > downs[j].version
	})

	for _, down := range downs {
		sqlBytes, err := fs.ReadFile(migrations, down.name)
		if err != nil {
			return err
		}
		sqlText := strings.TrimSpace(string(sqlBytes))
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			return err
		}
	}

	return nil
}
