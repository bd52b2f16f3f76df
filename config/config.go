package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	env "github.com/caarlos0/env/v11"
)

// Prefix is prepended to every environment variable name.
const Prefix = "LOADERGEN_"

// Config holds the service configuration.
type Config struct {
	ServerAddress  string        `env:"SERVER_ADDRESS" envDefault:":8080"`
	SpecDir        string        `env:"SPEC_DIR" envDefault:"specs"`
	WorkDir        string        `env:"WORK_DIR" envDefault:""`
	DeliverableTTL time.Duration `env:"DELIVERABLE_TTL" envDefault:"24h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
	WatchSpecs     bool          `env:"WATCH_SPECS" envDefault:"false"`
	IndexPath      string        `env:"INDEX_PATH" envDefault:""`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"text"`
	Version        string        `env:"VERSION" envDefault:"dev"`

	// Object storage publishing, disabled when MinioEndpoint is empty
	MinioEndpoint  string `env:"MINIO_ENDPOINT" envDefault:""`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY" envDefault:""`
	MinioSecretKey string `env:"MINIO_SECRET_KEY" envDefault:""`
	MinioRegion    string `env:"MINIO_REGION" envDefault:""`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"true"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"loadergen"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultWorkDir()
	}
	return &cfg, nil
}

// DefaultWorkDir is the workspace root used when none is configured.
func DefaultWorkDir() string {
	return filepath.Join(os.TempDir(), "loadergen")
}

// PublishingEnabled reports whether archives are uploaded to object storage.
func (c *Config) PublishingEnabled() bool {
	return c.MinioEndpoint != ""
}

// IndexEnabled reports whether deliverables are recorded in the sqlite index.
func (c *Config) IndexEnabled() bool {
	return c.IndexPath != ""
}
