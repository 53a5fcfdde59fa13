package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig `envconfig:"DB"`
	Redis    RedisConfig
	Upstream UpstreamConfig
	Pipeline PipelineConfig
	Notify   NotifyConfig
	Webhook  WebhookConfig
	Storage  StorageConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `split_words:"true" default:"http://localhost:3000"`
	ShutdownTimeout int      `split_words:"true" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `default:"localhost"`
	Port        string `default:"5432"`
	User        string `default:"postgres"`
	Password    string `default:"postgres"`
	Name        string `default:"meeting_sync"`
	SSLMode     string `envconfig:"SSLMODE" default:"disable"`
	MaxConns    int    `split_words:"true" default:"25"`
	MinConns    int    `split_words:"true" default:"5"`
	AutoMigrate bool   `split_words:"true" default:"false"`
}

// RedisConfig holds Redis configuration. An empty Host disables the Redis
// backed analysis queue; MemoryQueueCapacity then bounds the in-process queue.
type RedisConfig struct {
	Host                string
	Port                string `default:"6379"`
	Password            string
	DB                  int    `default:"0"`
	QueueKey            string `split_words:"true" default:"analysis:jobs"`
	MemoryQueueCapacity int    `split_words:"true" default:"1024"`
}

// UpstreamConfig describes the transcription/bot service meetings are pulled from
type UpstreamConfig struct {
	BaseURL        string        `split_words:"true"`
	APIKey         string        `split_words:"true"`
	RequestTimeout time.Duration `split_words:"true" default:"15s"`
	RetryWindow    time.Duration `split_words:"true" default:"10s"`
}

// PipelineConfig tunes a single ingestion run
type PipelineConfig struct {
	RunTimeout           time.Duration `split_words:"true" default:"2m"`
	BatchSize            int           `split_words:"true" default:"100"`
	PlaceholderSummaries []string      `split_words:"true" default:"processing,no summary available,summary not available,pending"`
}

// NotifyConfig holds the transcript-ready notification channels
type NotifyConfig struct {
	WebhookURL    string        `split_words:"true"`
	WebhookSecret string        `split_words:"true"`
	FallbackURL   string        `split_words:"true"`
	Timeout       time.Duration `default:"10s"`
}

// WebhookConfig holds inbound webhook verification settings
type WebhookConfig struct {
	Secret string
}

// StorageConfig holds raw payload archive configuration
type StorageConfig struct {
	Enabled         bool   `default:"false"`
	Endpoint        string `default:"localhost:9000"`
	AccessKeyID     string `envconfig:"ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"BUCKET" default:"meeting-sync"`
	UseSSL          bool   `split_words:"true" default:"false"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("PIPELINE_BATCH_SIZE must be positive, got %d", c.Pipeline.BatchSize)
	}
	if c.Database.AutoMigrate && c.IsProduction() {
		return fmt.Errorf("DB_AUTO_MIGRATE must not be enabled in production")
	}
	if strings.TrimSpace(c.Redis.Host) == "" && c.IsProduction() {
		return fmt.Errorf("REDIS_HOST is required in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
