package store

import (
	"io/fs"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	pattern := regexp.MustCompile(`^(\d+)_.*\.(up|down)\.sql$`)
	perDialect := map[Dialect]map[string]map[string]bool{}

	for _, dialect := range []Dialect{Postgres, SQLite} {
		migrations, err := Migrations(dialect)
		require.NoError(t, err, "open %s migrations", dialect)
		entries, err := fs.ReadDir(migrations, ".")
		require.NoError(t, err, "read %s migrations", dialect)

		byVersion := map[string]map[string]bool{}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			match := pattern.FindStringSubmatch(entry.Name())
			if match == nil {
				continue
			}
			version, direction := match[1], match[2]
			if byVersion[version] == nil {
				byVersion[version] = map[string]bool{}
			}
			require.False(t, byVersion[version][direction], "duplicate %s migration file for version %s", direction, version)
			byVersion[version][direction] = true
		}

		require.NotEmpty(t, byVersion, "no %s migrations discovered", dialect)
		for version, dirs := range byVersion {
			assert.True(t, dirs["up"] && dirs["down"], "%s version %s must include both up and down files", dialect, version)
		}
		perDialect[dialect] = byVersion
	}

	for version := range perDialect[Postgres] {
		assert.NotNil(t, perDialect[SQLite][version], "version %s exists for postgres but not sqlite", version)
	}
}
