package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
crm:
  category_id: "12"
  page_size: 25
  timeout: 5s
database:
  type: SQLServer
  host: db.example.com
  port: 1433
log:
  level: debug
`)

	t.Setenv("PORT", "9100")
	t.Setenv("CRM_WEBHOOK_URL", "https://crm.example.com/rest/1/abc")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("AUTH_ADMIN_PASSWORD", "admin-pass")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "env overrides yaml")
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr())
	assert.Equal(t, "12", cfg.CRM.CategoryID)
	assert.Equal(t, 25, cfg.CRM.PageSize)
	assert.Equal(t, 20, cfg.CRM.MaxParallel, "default applies")
	assert.Equal(t, 5*time.Second, cfg.CRM.Timeout)
	assert.Equal(t, "https://crm.example.com/rest/1/abc", cfg.CRM.WebhookURL)
	assert.Equal(t, DatabaseSQLServer, cfg.Database.Type)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "admin-pass", cfg.Auth.AdminPassword)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("PORT", "8181")
	t.Setenv("DB_TYPE", "none")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, DatabaseNone, cfg.Database.Type)
	assert.Equal(t, "configs/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, 50, cfg.CRM.PageSize)
	assert.Equal(t, uint64(3), cfg.CRM.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.CRM.RetryInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "unknown database", yaml: "database:\n  type: oracle\n", wantErr: "database.type"},
		{name: "zero page size", yaml: "crm:\n  page_size: -1\n", wantErr: "crm.page_size"},
		{name: "non-numeric port", yaml: "server:\n  port: http\n", wantErr: "server.port"},
		{name: "malformed yaml", yaml: "server: [", wantErr: "failed to read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_PostgresURL(t *testing.T) {
	db := DatabaseConfig{Host: "db", User: "lms", Password: "p@ss word", Database: "lms", SSLMode: "require"}
	assert.Equal(t, "postgres://lms:p%40ss%20word@db:5432/lms?sslmode=require", db.PostgresURL())

	db.Port = 6543
	assert.Contains(t, db.PostgresURL(), "@db:6543/")
}
