package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains connection settings for the evaluation backend.
type API struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	WorkspaceURL   string `toml:"workspace_url"`
}

// Upload tunes the upload worker pool.
type Upload struct {
	MaxWorkers     int `toml:"max_workers"`
	MaxAttempts    int `toml:"max_attempts"`
	RetryInitialMS int `toml:"retry_initial_ms"`
	RetryMaxMS     int `toml:"retry_max_ms"`
}

// Storage selects how upload URLs are authorized. Mode "api" asks the
// backend for presigned URLs; mode "s3" signs them locally for a bucket.
type Storage struct {
	Mode            string `toml:"mode"`
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	PathStyle       bool   `toml:"path_style"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	PresignMinutes  int    `toml:"presign_minutes"`
}

// Media contains external tool locations used for audio probing.
type Media struct {
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for podo.
//
// Configuration sections by subsystem:
//   - API: backend base URL, API key, request timeout, workspace URL
//   - Upload: worker pool size and retry policy
//   - Storage: backend-issued or locally signed upload URLs
//   - Media: ffprobe location
//   - Logging: log format, level, and directory
type Config struct {
	API     API     `toml:"api"`
	Upload  Upload  `toml:"upload"`
	Storage Storage `toml:"storage"`
	Media   Media   `toml:"media"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// variables (and a .env file in the working directory) override file values.
// It returns the resolved path and whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			var decodeErr *toml.DecodeError
			if errors.As(err, &decodeErr) {
				row, col := decodeErr.Position()
				return nil, "", false, fmt.Errorf("parse config %s:%d:%d: %w", resolved, row, col, err)
			}
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	for _, step := range []func() error{cfg.applyEnv, cfg.normalize, cfg.Validate} {
		if err := step(); err != nil {
			return nil, "", false, err
		}
	}
	return &cfg, resolved, exists, nil
}

// resolveConfigPath expands an explicit path, or picks the first existing
// file among the per-user default and ./podo.toml. With nothing found the
// per-user default is returned with exists=false.
func resolveConfigPath(path string) (string, bool, error) {
	candidates := []string{path}
	if path == "" {
		candidates = []string{defaultConfigPath, projectConfigName}
	}
	var first string
	for _, candidate := range candidates {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = expanded
		}
		info, err := os.Stat(expanded)
		switch {
		case err == nil && !info.IsDir():
			return expanded, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return first, false, nil
}

// EnsureDirectories creates the log directory.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Logging.Dir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Logging.Dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Logging.Dir, err)
	}
	return nil
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// RetryInitial returns the first retry backoff delay.
func (c *Config) RetryInitial() time.Duration {
	return time.Duration(c.Upload.RetryInitialMS) * time.Millisecond
}

// RetryMax returns the retry backoff ceiling.
func (c *Config) RetryMax() time.Duration {
	return time.Duration(c.Upload.RetryMaxMS) * time.Millisecond
}

// PresignTTL returns the lifetime of locally signed upload URLs.
func (c *Config) PresignTTL() time.Duration {
	return time.Duration(c.Storage.PresignMinutes) * time.Minute
}

// FFprobeBinary returns the ffprobe executable used for audio probing.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Media.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// RequireAPIKey reports a configuration error when no backend API key is set.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.API.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("api.api_key is required. Set PODONOS_API_KEY env var or edit %s (create with 'podo config init')", defaultPath)
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value[1:], "/"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path, creating parent
// directories. The file is written owner-only.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
