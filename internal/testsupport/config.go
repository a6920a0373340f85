package testsupport

import (
	"path/filepath"
	"testing"

	"cardpress/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Server.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithPlan sets the default plan tier on the test config.
func WithPlan(plan string) ConfigOption {
	return func(c *config.Config) {
		c.Plan = plan
	}
}

// WithDraftTTL overrides the draft snapshot TTL in hours.
func WithDraftTTL(hours int) ConfigOption {
	return func(c *config.Config) {
		c.Drafts.TTLHours = hours
	}
}

// WithOutput overrides the baked output raster settings.
func WithOutput(width, height, quality int) ConfigOption {
	return func(c *config.Config) {
		c.Output.Width = width
		c.Output.Height = height
		c.Output.Quality = quality
	}
}
