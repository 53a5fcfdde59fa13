package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://api.transcripts.example")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 100, cfg.Pipeline.BatchSize)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.RunTimeout)
	assert.Equal(t, 15*time.Second, cfg.Upstream.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, "analysis:jobs", cfg.Redis.QueueKey)
	assert.Equal(t, 1024, cfg.Redis.MemoryQueueCapacity)
	assert.Contains(t, cfg.Pipeline.PlaceholderSummaries, "processing")
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=meeting_sync sslmode=disable", cfg.GetDatabaseDSN())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://api.transcripts.example")
	t.Setenv("UPSTREAM_API_KEY", "key-1")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("PIPELINE_BATCH_SIZE", "25")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://hooks.example/transcripts")
	t.Setenv("NOTIFY_FALLBACK_URL", "http://localhost:8080/v1/internal/analysis/trigger")
	t.Setenv("WEBHOOK_SECRET", "whsec")
	t.Setenv("REDIS_HOST", "redis")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "key-1", cfg.Upstream.APIKey)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Pipeline.BatchSize)
	assert.Equal(t, "https://hooks.example/transcripts", cfg.Notify.WebhookURL)
	assert.Equal(t, "http://localhost:8080/v1/internal/analysis/trigger", cfg.Notify.FallbackURL)
	assert.Equal(t, "whsec", cfg.Webhook.Secret)
	assert.Equal(t, "redis:6379", cfg.GetRedisAddr())
}

func TestValidate(t *testing.T) {
	t.Run("upstream required", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UPSTREAM_BASE_URL")
	})

	t.Run("batch size positive", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "https://api.transcripts.example")
		t.Setenv("PIPELINE_BATCH_SIZE", "0")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PIPELINE_BATCH_SIZE")
	})

	t.Run("no auto migrate in production", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "https://api.transcripts.example")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("DB_AUTO_MIGRATE", "true")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_AUTO_MIGRATE")
	})

	t.Run("redis required in production", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "https://api.transcripts.example")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("DB_AUTO_MIGRATE", "false")
		t.Setenv("REDIS_HOST", "")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_HOST")

		t.Setenv("REDIS_HOST", "redis")
		_, err = FromEnv()
		assert.NoError(t, err)
	})
}
