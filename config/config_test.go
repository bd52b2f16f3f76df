package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "specs", cfg.SpecDir)
	assert.Equal(t, DefaultWorkDir(), cfg.WorkDir)
	assert.Equal(t, 24*time.Hour, cfg.DeliverableTTL)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.False(t, cfg.WatchSpecs)
	assert.False(t, cfg.IndexEnabled())
	assert.False(t, cfg.PublishingEnabled())
	assert.Equal(t, "loadergen", cfg.MinioBucket)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LOADERGEN_SERVER_ADDRESS", "127.0.0.1:9000")
	t.Setenv("LOADERGEN_WORK_DIR", "/srv/loadergen")
	t.Setenv("LOADERGEN_DELIVERABLE_TTL", "90m")
	t.Setenv("LOADERGEN_WATCH_SPECS", "true")
	t.Setenv("LOADERGEN_INDEX_PATH", "/srv/loadergen/index.db")
	t.Setenv("LOADERGEN_MINIO_ENDPOINT", "minio:9000")
	t.Setenv("LOADERGEN_MINIO_USE_SSL", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddress)
	assert.Equal(t, "/srv/loadergen", cfg.WorkDir)
	assert.Equal(t, 90*time.Minute, cfg.DeliverableTTL)
	assert.True(t, cfg.WatchSpecs)
	assert.True(t, cfg.IndexEnabled())
	assert.True(t, cfg.PublishingEnabled())
	assert.False(t, cfg.MinioUseSSL)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LOADERGEN_SWEEP_INTERVAL", "often")
	_, err := Load()
	assert.Error(t, err)
}
