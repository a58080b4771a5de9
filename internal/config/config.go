package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

var (
	ErrMissingBackendURL = errors.New("BACKEND_BASE_URL is required")
	ErrUnknownCartStore  = errors.New("unknown cart store")
	ErrMissingDBConfig   = errors.New("postgres cart store requires DB_HOST and DB_NAME")
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	AppPort  string `envconfig:"APP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	BackendBaseURL string        `envconfig:"BACKEND_BASE_URL" required:"true"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`

	CartStore   string        `envconfig:"CART_STORE" default:"memory"`
	CartSlotTTL time.Duration `envconfig:"CART_SLOT_TTL" default:"720h"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	DBHost     string `envconfig:"DB_HOST"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`

	SecretKey string `envconfig:"SECRET_KEY"`

	PaymentPollInterval time.Duration `envconfig:"PAYMENT_POLL_INTERVAL" default:"5s"`
	PaymentWindow       time.Duration `envconfig:"PAYMENT_WINDOW" default:"15m"`
	PaymentRetention    time.Duration `envconfig:"PAYMENT_RETENTION" default:"1h"`

	ShippingFallbackFee   int64 `envconfig:"SHIPPING_FALLBACK_FEE" default:"30000"`
	ShippingServiceTypeID int   `envconfig:"SHIPPING_SERVICE_TYPE_ID" default:"2"`

	VietQRTemplate   string   `envconfig:"VIETQR_TEMPLATE" default:"compact2"`
	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if strings.TrimSpace(cfg.BackendBaseURL) == "" {
		return nil, ErrMissingBackendURL
	}

	cfg.CartStore = strings.ToLower(strings.TrimSpace(cfg.CartStore))
	switch cfg.CartStore {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if cfg.DBHost == "" || cfg.DBName == "" {
			return nil, ErrMissingDBConfig
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCartStore, cfg.CartStore)
	}

	return &cfg, nil
}
