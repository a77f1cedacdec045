package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"podo/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config with a per-test log directory and a test API
// key, then applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.API.APIKey = "test-key"
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Upload.RetryInitialMS = 1
	cfgVal.Upload.RetryMaxMS = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBaseURL points the API section at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = url
	}
}

// WithUploadWorkers overrides the upload pool size.
func WithUploadWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.MaxWorkers = n
	}
}

// WithStubbedFFprobe writes an ffprobe stand-in that prints output for any
// input and points the media section at it.
func WithStubbedFFprobe(output string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Media.FFprobeBinary = StubFFprobe(b.t, b.baseDir, output)
	}
}

// StubFFprobe writes an executable shell script under dir that prints
// output and exits 0. It returns the script path.
func StubFFprobe(t testing.TB, dir, output string) string {
	t.Helper()
	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, "ffprobe")
	script := "#!/bin/sh\ncat <<'JSON'\n" + output + "\nJSON\n"
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Logging.Dir)
}
