package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
//
// Object storage carries two credential tiers: the service tier signs
// upload/download URLs and stats objects; the tenant tier is read-only and
// is only handed to connectivity probes. Components receive the tier they
// need at construction and never read the environment themselves.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"VERSION" default:"dev"`

	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	SessionSecret string `envconfig:"SESSION_SECRET" required:"true"`

	StorageEndpoint         string `envconfig:"STORAGE_ENDPOINT" required:"true"`
	StorageUseSSL           bool   `envconfig:"STORAGE_USE_SSL" default:"true"`
	StorageServiceAccessKey string `envconfig:"STORAGE_SERVICE_ACCESS_KEY" required:"true"`
	StorageServiceSecretKey string `envconfig:"STORAGE_SERVICE_SECRET_KEY" required:"true"`
	StorageTenantAccessKey  string `envconfig:"STORAGE_TENANT_ACCESS_KEY" required:"true"`
	StorageTenantSecretKey  string `envconfig:"STORAGE_TENANT_SECRET_KEY" required:"true"`
	RawBucket               string `envconfig:"STORAGE_RAW_BUCKET" default:"telemetry-raw"`
	ParsedBucket            string `envconfig:"STORAGE_PARSED_BUCKET" default:"telemetry-parsed"`

	UploadURLTTL   time.Duration `envconfig:"UPLOAD_URL_TTL" default:"15m"`
	DownloadURLTTL time.Duration `envconfig:"DOWNLOAD_URL_TTL" default:"60s"`

	ParserWebhookSecret string `envconfig:"PARSER_WEBHOOK_SECRET" required:"true"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
