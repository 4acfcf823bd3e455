package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultJWTSecret is the placeholder shipped in .env.example. It is refused in production.
const DefaultJWTSecret = "change-me-in-production"

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`
	Port   string `envconfig:"PORT" default:"3001"`

	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI    string `envconfig:"MONGODB_URI" default:"mongodb://127.0.0.1:27017"`
	DBName      string `envconfig:"MONGODB_DB" default:"googlebooks"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL       time.Duration `envconfig:"JWT_TTL" default:"2h"`
	JWTAlgorithm string        `envconfig:"JWT_ALGORITHM" default:"HS256"`

	StaticDir      string `envconfig:"STATIC_DIR" default:"../client/build"`
	GoogleBooksURL string `envconfig:"GOOGLE_BOOKS_URL" default:"https://www.googleapis.com/books/v1/volumes"`

	S3Bucket      string        `envconfig:"AWS_S3_BUCKET"`
	S3Region      string        `envconfig:"AWS_REGION" default:"us-east-1"`
	S3AccessKeyID string        `envconfig:"AWS_ACCESS_KEY_ID"`
	S3SecretKey   string        `envconfig:"AWS_SECRET_ACCESS_KEY"`
	S3Endpoint    string        `envconfig:"AWS_S3_ENDPOINT"`
	ExportURLTTL  time.Duration `envconfig:"EXPORT_URL_TTL" default:"15m"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set to a strong secret (not the default %s)", DefaultJWTSecret)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q; use %s or %s", c.StoreDriver, StoreMongo, StoreMemory)
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// ExportEnabled reports whether an S3 bucket is configured for saved-list exports.
func (c *Config) ExportEnabled() bool {
	return c.S3Bucket != ""
}
