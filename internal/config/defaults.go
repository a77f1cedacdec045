package config

const (
	defaultConfigPath         = "~/.config/podo/config.toml"
	projectConfigName         = "podo.toml"
	defaultBaseURL            = "https://prod.podonosapi.com"
	defaultWorkspaceURL       = "https://workspace.podonos.com"
	defaultTimeoutSeconds     = 60
	defaultUploadWorkers      = 20
	defaultUploadMaxAttempts  = 3
	defaultRetryInitialMS     = 500
	defaultRetryMaxMS         = 8000
	defaultStorageMode        = StorageModeAPI
	defaultStorageRegion      = "us-east-1"
	defaultPresignMinutes     = 15
	defaultFFprobeBinary      = "ffprobe"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogDir             = "~/.local/share/podo/logs"
	maxPresignMinutes         = 7 * 24 * 60
	maxUploadWorkersThreshold = 256
)

// Storage modes.
const (
	StorageModeAPI = "api"
	StorageModeS3  = "s3"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
			WorkspaceURL:   defaultWorkspaceURL,
		},
		Upload: Upload{
			MaxWorkers:     defaultUploadWorkers,
			MaxAttempts:    defaultUploadMaxAttempts,
			RetryInitialMS: defaultRetryInitialMS,
			RetryMaxMS:     defaultRetryMaxMS,
		},
		Storage: Storage{
			Mode:           defaultStorageMode,
			Region:         defaultStorageRegion,
			PresignMinutes: defaultPresignMinutes,
		},
		Media: Media{
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
