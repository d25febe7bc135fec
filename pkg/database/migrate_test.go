package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-api/pkg/config"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestSurveyMigrationDeclaresLedgerUniqueness(t *testing.T) {
	raw, err := fs.ReadFile(migrationFiles, "migrations/000002_surveys.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "UNIQUE (survey_id, user_id)")
	assert.Contains(t, string(raw), "ON DELETE CASCADE")
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "survey_app", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=survey_app sslmode=disable", dsn)
}
