package testsupport

import (
	"path/filepath"
	"testing"

	"glimpse/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ImagesDir = filepath.Join(base, "images")
	cfg.Paths.TempDir = filepath.Join(base, "temp")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Embedding.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithSimilarityThreshold overrides the dedup threshold on the test config.
func WithSimilarityThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.SimilarityThreshold = threshold
	}
}

// WithCaptureBinary overrides the screenshot tool on the test config.
func WithCaptureBinary(binary string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Capture.Binary = binary
	}
}
