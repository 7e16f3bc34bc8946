package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DatabaseConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("DB_HOST", "test-postgres")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_NAME", "docsched_test")
	defer func() {
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_PORT")
		os.Unsetenv("DB_NAME")
	}()

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify database config
	assert.Equal(t, "test-postgres", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "docsched_test", cfg.Database.Database)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("DB_HOST")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("NOTIFY_ENABLED")
	os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoad_InvalidPortFallsBack(t *testing.T) {
	os.Setenv("SERVER_PORT", "not-a-number")
	defer os.Unsetenv("SERVER_PORT")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "docsched",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=docsched sslmode=disable",
		cfg.DatabaseDSN(),
	)
}
