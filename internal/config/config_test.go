/*-------------------------------------------------------------------------
 *
 * config_test.go
 *    Tests for configuration loading
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/config/config_test.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "datagrub", cfg.Database.Database)
	assert.Equal(t, "", cfg.Redis.Addr, "cache is off unless configured")
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.Judge.APIKeyEnv)
	assert.Equal(t, 60*time.Second, cfg.Evaluation.AdapterTimeout)
	assert.Equal(t, "DATAGRUB_SECRET_", cfg.Evaluation.SecretPrefix)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
judge:
  model: judge-test-model
redis:
  addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "judge-test-model", cfg.Judge.Model)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	/* untouched sections keep their defaults */
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 4096, cfg.Judge.MaxTokens)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATAGRUB_SERVER_PORT", "7070")
	t.Setenv("DATAGRUB_DB_PASSWORD", "sekrit")
	t.Setenv("DATAGRUB_ADAPTER_TIMEOUT", "90s")
	t.Setenv("DATAGRUB_JUDGE_MODEL", "env-model")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sekrit", cfg.Database.Password)
	assert.Equal(t, 90*time.Second, cfg.Evaluation.AdapterTimeout)
	assert.Equal(t, "env-model", cfg.Judge.Model)
}

func TestLoadFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DATAGRUB_SERVER_PORT", "not-a-number")
	t.Setenv("DATAGRUB_ADAPTER_TIMEOUT", "soon")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Evaluation.AdapterTimeout)
}

func TestConnString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Password = "pw"
	assert.Equal(t,
		"host=localhost port=5432 user=datagrub password=pw dbname=datagrub sslmode=disable",
		cfg.Database.ConnString())
}
