package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envOverlay lists the environment variables that override file values.
// Empty or unset variables leave the file value in place.
type envOverlay struct {
	APIKey        string `env:"PODONOS_API_KEY"`
	BaseURL       string `env:"PODO_API_BASE_URL"`
	WorkspaceURL  string `env:"PODO_WORKSPACE_URL"`
	UploadWorkers int    `env:"PODO_UPLOAD_WORKERS"`
	StorageMode   string `env:"PODO_STORAGE_MODE"`
	StorageBucket string `env:"PODO_STORAGE_BUCKET"`
	FFprobe       string `env:"PODO_FFPROBE"`
	LogLevel      string `env:"PODO_LOG_LEVEL"`
	LogFormat     string `env:"PODO_LOG_FORMAT"`
	LogDir        string `env:"PODO_LOG_DIR"`
}

// dotenvPath is loaded before the overlay when present. Variables already
// set in the process environment win over the file.
var dotenvPath = ".env"

func (c *Config) applyEnv() error {
	if _, err := os.Stat(dotenvPath); err == nil {
		if err := godotenv.Load(dotenvPath); err != nil {
			return fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", dotenvPath, err)
	}

	var overlay envOverlay
	if err := env.Parse(&overlay); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	setString(&c.API.APIKey, overlay.APIKey)
	setString(&c.API.BaseURL, overlay.BaseURL)
	setString(&c.API.WorkspaceURL, overlay.WorkspaceURL)
	if overlay.UploadWorkers != 0 {
		c.Upload.MaxWorkers = overlay.UploadWorkers
	}
	setString(&c.Storage.Mode, overlay.StorageMode)
	setString(&c.Storage.Bucket, overlay.StorageBucket)
	setString(&c.Media.FFprobeBinary, overlay.FFprobe)
	setString(&c.Logging.Level, overlay.LogLevel)
	setString(&c.Logging.Format, overlay.LogFormat)
	setString(&c.Logging.Dir, overlay.LogDir)
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
