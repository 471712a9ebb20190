package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
[development]
host = "localhost"
port = 8080
log_level = "trace"
log_to_stdout = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "keepfit"
redis_host = "localhost"
redis_port = "6379"
parse_rate_limit_allowed_per_min = 10

[production]
port = 9000
log_level = "debug"
logs_path = "/var/log/keepfit/service.log"
sentry_enabled = true
postgres_db_name = "keepfit"
`

func TestLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfigContent), 0o600))

	cfg, err := Load("development", configPath)
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.True(t, cfg.LogToStdout)
	assert.False(t, cfg.SentryEnabled)
	assert.Equal(t, "keepfit", cfg.PostgresDBName)
	assert.Equal(t, "6379", cfg.RedisPort)
	assert.Equal(t, 10, cfg.ParseRateLimitAllowedPerMin)

	cfg, err = Load("prod", configPath)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.SentryEnabled)
	assert.Equal(t, "/var/log/keepfit/service.log", cfg.LogsPath)
}

func TestLoad_unknownEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfigContent), 0o600))

	cfg, err := Load("staging", configPath)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "unknown env")
}

func TestLoad_missingFile(t *testing.T) {
	cfg, err := Load("development", "/no/such/config.toml")
	require.Error(t, err)
	assert.Nil(t, cfg)
}
