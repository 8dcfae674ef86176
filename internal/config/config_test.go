package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: "9090"
database:
  host: db
  user: quiz
  dbname: fihu
redis:
  addr: "redis:6379"
quiz:
  cache_live_ttl: 20s
admin:
  session_secret: "0123456789abcdef0123456789abcdef"
  password_hash: "$2a$10$abcdefghijklmnopqrstuv"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port, "default port")
	assert.Equal(t, 20*time.Second, cfg.Quiz.CacheLiveTTL)
	assert.Equal(t, 5*time.Minute, cfg.Quiz.CacheIdleTTL, "default idle TTL")
	assert.Equal(t, 2*time.Second, cfg.Quiz.AutosaveDebounce)
	assert.Equal(t, 30*time.Second, cfg.Quiz.AutosaveInterval)
	assert.NoError(t, cfg.ValidateServer())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DATABASE_HOST", "env-db")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestLoad_MissingDatabase(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  port: \"1\"\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database configuration")
}

func TestValidateServer(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	short := *cfg
	short.Admin.SessionSecret = "short"
	assert.Error(t, short.ValidateServer())

	noRedis := *cfg
	noRedis.Redis.Addr = ""
	assert.Error(t, noRedis.ValidateServer())

	emailWithoutKey := *cfg
	emailWithoutKey.Email.Enabled = true
	err = emailWithoutKey.ValidateServer()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "RESEND_API_KEY"))
}
