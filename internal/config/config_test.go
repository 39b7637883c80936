package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1500, cfg.DataSource.TimeoutMS)
	assert.Equal(t, "data/bars.db", cfg.Database.BarsPath)
	assert.Equal(t, "data/results.db", cfg.Database.ResultsPath)
	assert.Equal(t, 30, cfg.Feedback.HorizonMinutes)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.InDelta(t, 0.40, cfg.Engine.CoverageWeight, 1e-9)
	assert.InDelta(t, 25.0, cfg.Engine.MagnitudeCeiling, 1e-9)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_source:
  base_url: http://bridge:9000
  timeout_ms: 800
  deny_list: [VALE3, GGBR4]
engine:
  neutral_band: 2.5
  magnitude_ceiling: 30
feedback:
  horizon_minutes: 45
log_level: debug
`), 0o644))

	t.Setenv("BRIDGE_BASE_URL", "http://other:9001")
	t.Setenv("BRIDGE_DENY_LIST", "PETR4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://other:9001", cfg.DataSource.BaseURL, "env wins over file")
	assert.Equal(t, []string{"PETR4"}, cfg.DataSource.DenyList)
	assert.Equal(t, 800, cfg.DataSource.TimeoutMS)
	assert.InDelta(t, 2.5, cfg.Engine.NeutralBand, 1e-9)
	assert.InDelta(t, 30.0, cfg.Engine.MagnitudeCeiling, 1e-9)
	assert.Equal(t, 45, cfg.Feedback.HorizonMinutes)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	err = cfg.Validate()
	assert.ErrorContains(t, err, "base_url")

	cfg.DataSource.UseMock = true
	assert.NoError(t, cfg.Validate(), "mock source needs no bridge URL")

	cfg.Engine.MagnitudeCeiling = 0
	assert.ErrorContains(t, cfg.Validate(), "magnitude_ceiling")
}
