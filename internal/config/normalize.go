package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAPI()
	c.normalizeUpload()
	c.normalizeStorage()
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	return c.normalizeLogging()
}

func (c *Config) normalizeAPI() {
	c.API.APIKey = strings.TrimSpace(c.API.APIKey)
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	c.API.WorkspaceURL = strings.TrimRight(strings.TrimSpace(c.API.WorkspaceURL), "/")
	if c.API.WorkspaceURL == "" {
		c.API.WorkspaceURL = defaultWorkspaceURL
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeUpload() {
	if c.Upload.MaxWorkers == 0 {
		c.Upload.MaxWorkers = defaultUploadWorkers
	}
	if c.Upload.MaxAttempts == 0 {
		c.Upload.MaxAttempts = defaultUploadMaxAttempts
	}
	if c.Upload.RetryInitialMS == 0 {
		c.Upload.RetryInitialMS = defaultRetryInitialMS
	}
	if c.Upload.RetryMaxMS == 0 {
		c.Upload.RetryMaxMS = defaultRetryMaxMS
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Mode = strings.ToLower(strings.TrimSpace(c.Storage.Mode))
	if c.Storage.Mode == "" {
		c.Storage.Mode = defaultStorageMode
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	if c.Storage.Region == "" {
		c.Storage.Region = defaultStorageRegion
	}
	c.Storage.Endpoint = strings.TrimRight(strings.TrimSpace(c.Storage.Endpoint), "/")
	if c.Storage.PresignMinutes == 0 {
		c.Storage.PresignMinutes = defaultPresignMinutes
	}
}

func (c *Config) normalizeLogging() error {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	if level == "warning" {
		level = "warn"
	}
	c.Logging.Level = level

	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
