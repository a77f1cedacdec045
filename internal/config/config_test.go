package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podo/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"PODONOS_API_KEY", "PODO_API_BASE_URL", "PODO_WORKSPACE_URL", "PODO_UPLOAD_WORKERS",
		"PODO_STORAGE_MODE", "PODO_STORAGE_BUCKET", "PODO_FFPROBE",
		"PODO_LOG_LEVEL", "PODO_LOG_FORMAT", "PODO_LOG_DIR",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(home, ".config", "podo", "config.toml"), resolved)

	assert.Equal(t, "https://prod.podonosapi.com", cfg.API.BaseURL)
	assert.Equal(t, "https://workspace.podonos.com", cfg.API.WorkspaceURL)
	assert.Equal(t, 20, cfg.Upload.MaxWorkers)
	assert.Equal(t, 3, cfg.Upload.MaxAttempts)
	assert.Equal(t, config.StorageModeAPI, cfg.Storage.Mode)
	assert.Equal(t, "ffprobe", cfg.FFprobeBinary())
	assert.Equal(t, filepath.Join(home, ".local", "share", "podo", "logs"), cfg.Logging.Dir)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.RetryInitial())

	require.Error(t, cfg.RequireAPIKey())
	require.NoError(t, cfg.EnsureDirectories())
	info, err := os.Stat(cfg.Logging.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadCustomPath(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "podo.toml")

	type payload struct {
		API struct {
			BaseURL string `toml:"base_url"`
			APIKey  string `toml:"api_key"`
		} `toml:"api"`
		Upload struct {
			MaxWorkers int `toml:"max_workers"`
		} `toml:"upload"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.API.BaseURL = "https://dev.example.com/"
	custom.API.APIKey = "file-key"
	custom.Upload.MaxWorkers = 4
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Warning"
	data, err := toml.Marshal(custom)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configPath, data, 0o644))

	cfg, resolved, exists, err := config.Load(configPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, configPath, resolved)
	assert.Equal(t, "https://dev.example.com", cfg.API.BaseURL)
	assert.Equal(t, "file-key", cfg.API.APIKey)
	assert.Equal(t, 4, cfg.Upload.MaxWorkers)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "podo.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[api]\napi_key = \"file-key\"\n"), 0o644))

	t.Setenv("PODONOS_API_KEY", "env-key")
	t.Setenv("PODO_UPLOAD_WORKERS", "7")
	t.Setenv("PODO_LOG_LEVEL", "debug")

	cfg, _, _, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.API.APIKey)
	assert.Equal(t, 7, cfg.Upload.MaxWorkers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestDotenvFileLoaded(t *testing.T) {
	isolate(t)
	os.Unsetenv("PODONOS_API_KEY")
	require.NoError(t, os.WriteFile(".env", []byte("PODONOS_API_KEY=dotenv-key\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PODONOS_API_KEY") })

	cfg, _, _, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.API.APIKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"workers", func(c *config.Config) { c.Upload.MaxWorkers = 0 }, "upload.max_workers"},
		{"attempts", func(c *config.Config) { c.Upload.MaxAttempts = 0 }, "upload.max_attempts"},
		{"retry order", func(c *config.Config) { c.Upload.RetryMaxMS = 10 }, "retry_max_ms"},
		{"base url", func(c *config.Config) { c.API.BaseURL = "ftp://x" }, "api.base_url"},
		{"storage mode", func(c *config.Config) { c.Storage.Mode = "gcs" }, "storage.mode"},
		{"s3 bucket", func(c *config.Config) { c.Storage.Mode = config.StorageModeS3 }, "storage.bucket"},
		{"s3 creds", func(c *config.Config) {
			c.Storage.Mode = config.StorageModeS3
			c.Storage.Bucket = "b"
			c.Storage.AccessKeyID = "id"
		}, "set together"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, config.Default().API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, config.Default().Upload.MaxWorkers, cfg.Upload.MaxWorkers)
}

func TestLoadFallsBackToProjectFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("podo.toml", []byte("[api]\napi_key = \"project-key\"\n"), 0o600))

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "podo.toml", filepath.Base(resolved))
	assert.Equal(t, "project-key", cfg.API.APIKey)
}

func TestLoadReportsParsePosition(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[api]\nbase_url = \n"), 0o600))

	_, _, _, err := config.Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.toml:2:")
}
