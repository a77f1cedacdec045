package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. The API key is checked
// separately by RequireAPIKey so commands that never reach the backend keep
// working without one.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAPI() error {
	if err := validateURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validateURL("api.workspace_url", c.API.WorkspaceURL); err != nil {
		return err
	}
	if c.API.TimeoutSeconds < 0 {
		return errors.New("api.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxWorkers < 1 {
		return errors.New("upload.max_workers must be at least 1")
	}
	if c.Upload.MaxWorkers > maxUploadWorkersThreshold {
		return fmt.Errorf("upload.max_workers must not exceed %d", maxUploadWorkersThreshold)
	}
	if c.Upload.MaxAttempts < 1 {
		return errors.New("upload.max_attempts must be at least 1")
	}
	if c.Upload.RetryInitialMS < 0 || c.Upload.RetryMaxMS < 0 {
		return errors.New("upload retry delays must not be negative")
	}
	if c.Upload.RetryMaxMS < c.Upload.RetryInitialMS {
		return errors.New("upload.retry_max_ms must be >= upload.retry_initial_ms")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Mode {
	case StorageModeAPI:
		return nil
	case StorageModeS3:
	default:
		return fmt.Errorf("storage.mode: unsupported value %q (want %q or %q)", c.Storage.Mode, StorageModeAPI, StorageModeS3)
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set when storage.mode is s3")
	}
	if c.Storage.Endpoint != "" {
		if err := validateURL("storage.endpoint", c.Storage.Endpoint); err != nil {
			return err
		}
	}
	if (c.Storage.AccessKeyID == "") != (c.Storage.SecretAccessKey == "") {
		return errors.New("storage.access_key_id and storage.secret_access_key must be set together")
	}
	if c.Storage.PresignMinutes < 1 || c.Storage.PresignMinutes > maxPresignMinutes {
		return fmt.Errorf("storage.presign_minutes must be between 1 and %d", maxPresignMinutes)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}
