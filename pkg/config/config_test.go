package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("port: \"9090\"\ndatabase:\n  host: db.internal\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Chdir(dir)

	t.Setenv("PGPASSWORD", "sekret")
	t.Setenv("PGPORT", "5433")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "sekret", cfg.Database.Password)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, "test", cfg.Version)
}

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "agreements",
		Password: "pw",
		Database: "agreements_engine",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=agreements password=pw dbname=agreements_engine sslmode=disable",
		c.ConnectionString())
}
