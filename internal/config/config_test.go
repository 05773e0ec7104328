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

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	start, err := cfg.StartDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, "Uniswap V3", cfg.ProtocolNames()["uniswap-v3"])
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeFile(t, "pipeline.yaml", `
pipeline:
  workers: 8
  extract_start_date: "2024-03-01"
revenue:
  swap_fee_rate: 0.0005
retry:
  max_retries: 5
  initial_delay: 2s
log:
  level: debug
`)
	t.Setenv("PIPELINE_WORKERS", "2")
	t.Setenv("LOG_ENCODING", "console")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, "2024-03-01", cfg.Pipeline.ExtractStartDate)
	assert.Equal(t, 0.0005, cfg.Revenue.SwapFeeRate)
	assert.Equal(t, 0.0003, cfg.Revenue.DailyYieldSpread)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "TRACE" }},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"negative rate", func(c *Config) { c.Revenue.SwapFeeRate = -0.1 }},
		{"bad start date", func(c *Config) { c.Pipeline.ExtractStartDate = "01/01/2024" }},
		{"bad cron", func(c *Config) { c.Server.Schedule = "every hour" }},
		{"bad encoding", func(c *Config) { c.Log.Encoding = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "# comment\nDEFI_TEST_A=one\nDEFI_TEST_B=\"two\"\nmalformed\n")
	t.Setenv("DEFI_TEST_B", "kept")
	t.Setenv("DEFI_TEST_A", "")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "one", os.Getenv("DEFI_TEST_A"))
	assert.Equal(t, "kept", os.Getenv("DEFI_TEST_B"))

	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
