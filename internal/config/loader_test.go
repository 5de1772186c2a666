package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/pkg/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "querypilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxRows, cfg.Limits.MaxRows)
	assert.Equal(t, DefaultQueryTimeout, cfg.Limits.QueryTimeout)
	assert.Equal(t, DefaultCountTimeout, cfg.Limits.CountTimeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, DefaultCacheRows, cfg.Cache.MaxRows)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Targets)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
default_target: analytics
targets:
  analytics:
    type: postgres
    host: db.internal
    port: 5433
    database: analytics
    user: app
    schema: public
    options:
      sslmode: require
  warehouse:
    type: clickhouse
    host: ch.internal
limits:
  max_rows: 500
  query_timeout: 2m
generator:
  endpoint: http://fixer.internal/rewrite
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "analytics", cfg.DefaultTarget)
	assert.Equal(t, 500, cfg.Limits.MaxRows)
	assert.Equal(t, 2*time.Minute, cfg.Limits.QueryTimeout)
	// Unset limits keep their defaults.
	assert.Equal(t, DefaultCountTimeout, cfg.Limits.CountTimeout)
	assert.Equal(t, "http://fixer.internal/rewrite", cfg.Generator.Endpoint)

	conn, err := cfg.Target("analytics")
	require.NoError(t, err)
	assert.Equal(t, core.EnginePostgres, conn.Type)
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, 5433, conn.Port)
	assert.Equal(t, "require", conn.Options["sslmode"])
}

func TestConfig_Target(t *testing.T) {
	cfg := &Config{
		DefaultTarget: "a",
		Targets: map[string]TargetConfig{
			"a": {Type: "duckdb", Path: ":memory:"},
			"b": {Type: "not-an-engine"},
		},
	}

	// Empty name falls back to the default target.
	conn, err := cfg.Target("")
	require.NoError(t, err)
	assert.Equal(t, core.EngineDuckDB, conn.Type)
	assert.Equal(t, ":memory:", conn.Path)

	_, err = cfg.Target("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `target "missing" not found`)

	_, err = cfg.Target("b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine type")

	empty := &Config{}
	_, err = empty.Target("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default_target")
}

func TestLoad_EnvVarExpansionInCredentials(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")
	t.Setenv("TEST_DB_TOKEN", "dapi-abc")

	path := writeConfig(t, `
targets:
  pg:
    type: postgres
    host: h
    password: ${TEST_DB_PASSWORD}
  dbx:
    type: databricks
    host: h
    token: ${TEST_DB_TOKEN}
  unset:
    type: mysql
    host: h
    password: ${TEST_UNSET_VARIABLE}
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Targets["pg"].Password)
	assert.Equal(t, "dapi-abc", cfg.Targets["dbx"].Token)
	// Unset variables are left intact rather than blanked.
	assert.Equal(t, "${TEST_UNSET_VARIABLE}", cfg.Targets["unset"].Password)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("QUERYPILOT_DEFAULT_TARGET", "from-env")
	t.Setenv("QUERYPILOT_GENERATOR__ENDPOINT", "http://env.example/fix")

	path := writeConfig(t, `
default_target: from-file
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DefaultTarget)
	assert.Equal(t, "http://env.example/fix", cfg.Generator.Endpoint)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	t.Setenv("QUERYPILOT_VERBOSE", "false")

	path := writeConfig(t, `
limits:
  max_rows: 500
cache:
  enabled: true
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-rows", 0, "")
	flags.Duration("timeout", 0, "")
	flags.Bool("no-cache", false, "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{
		"--max-rows=42", "--timeout=90s", "--no-cache", "--verbose",
	}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Limits.MaxRows)
	assert.Equal(t, 90*time.Second, cfg.Limits.QueryTimeout)
	assert.False(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Verbose)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	path := writeConfig(t, `
limits:
  max_rows: 500
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-rows", 0, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Limits.MaxRows)
}
