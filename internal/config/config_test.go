package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func noDotEnv(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), ".env")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.InDelta(t, 0.7, cfg.Discovery.Threshold, 0)
	assert.Equal(t, 4, cfg.Discovery.Workers)
	assert.Equal(t, "0.01", cfg.Validation.Tolerance)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Hierarchy.AllowOrphans)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noDotEnv(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "crossmap.yaml", `
discovery:
  threshold: 0.8
  workers: 2
  timeout: 30s
rollup:
  threshold: 0.75
validation:
  tolerance: "0.5"
hierarchy:
  allow_orphans: true
log:
  level: debug
  format: console
store:
  path: /tmp/defs.db
`)

	cfg, err := Load(path, noDotEnv(t))
	require.NoError(t, err)

	assert.InDelta(t, 0.8, cfg.Discovery.Threshold, 0)
	assert.Equal(t, 2, cfg.Discovery.Workers)
	assert.Equal(t, 30*time.Second, cfg.Discovery.Timeout)
	assert.Equal(t, 100, cfg.Discovery.FuzzyLimit, "unset keys keep defaults")
	assert.InDelta(t, 0.75, cfg.Rollup.Threshold, 0)
	assert.True(t, cfg.Hierarchy.AllowOrphans)
	assert.Equal(t, "/tmp/defs.db", cfg.Store.Path)

	tol, err := cfg.Validation.ToleranceValue()
	require.NoError(t, err)
	assert.Equal(t, "0.5", tol.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "crossmap.yaml", "log:\n  level: warn\n")
	env := writeFile(t, ".env", "CROSSMAP_STORE_PATH=from-dotenv.db\nCROSSMAP_TOLERANCE=0.05\n")

	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvDiscoveryThreshold, "0.9")
	t.Setenv(EnvTolerance, "0.02")
	t.Cleanup(func() { os.Unsetenv(EnvStorePath) })

	cfg, err := Load(path, env)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.InDelta(t, 0.9, cfg.Discovery.Threshold, 0)
	assert.Equal(t, "0.02", cfg.Validation.Tolerance, "the environment wins over .env")
	assert.Equal(t, "from-dotenv.db", cfg.Store.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "threshold", yaml: "discovery:\n  threshold: 1.5\n"},
		{name: "workers", yaml: "discovery:\n  workers: 0\n"},
		{name: "tolerance", yaml: "validation:\n  tolerance: \"-1\"\n"},
		{name: "tolerance text", yaml: "validation:\n  tolerance: abc\n"},
		{name: "log level", yaml: "log:\n  level: loud\n"},
		{name: "bad yaml", yaml: "discovery: [\n"},
		{name: "env threshold", env: map[string]string{EnvDiscoveryThreshold: "high"}},
		{name: "env workers", env: map[string]string{EnvDiscoveryWorkers: "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(writeFile(t, "crossmap.yaml", tt.yaml), noDotEnv(t))
			assert.Error(t, err)
		})
	}
}
