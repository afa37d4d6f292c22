package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Driver names.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverFirebase = "firebase"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (STOREFRONT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for relative product images (e.g. https://cdn.example.com)" flag:"image-base-url"`
	Storage      StorageConfig
	Session      SessionConfig
	Identity     IdentityConfig
	ImageHost    ImageHostConfig
	Checkout     CheckoutConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects where catalog, bags, favorites, coupons and orders live.
type StorageConfig struct {
	Driver string `default:"memory" usage:"Storage driver: memory or postgres"`
}

// SessionConfig controls session tokens and their store.
type SessionConfig struct {
	Driver   string        `default:"memory" usage:"Session store: memory or redis"`
	RedisURL string        `usage:"Redis URL for the redis session store (or REDIS_URL)" flag:"redis-url"`
	Secret   string        `usage:"HS256 signing secret, at least 32 bytes" flag:"session-secret"`
	TTL      time.Duration `default:"720h" usage:"Session lifetime"`
	Issuer   string        `default:"storefront" usage:"Token issuer claim"`
}

// IdentityConfig selects the identity provider.
type IdentityConfig struct {
	Driver           string `default:"memory" usage:"Identity provider: memory or firebase"`
	FirebaseAPIKey   string `usage:"Firebase Web API key" flag:"firebase-api-key"`
	FirebaseEndpoint string `default:"" usage:"Identity Toolkit base URL override"`
	// AutoVerify marks new accounts of the memory provider as verified.
	AutoVerify bool `default:"false" usage:"Treat new memory-provider accounts as email-verified"`
}

// ImageHostConfig configures profile photo hosting. Photo updates are
// disabled without an API key.
type ImageHostConfig struct {
	APIKey   string `usage:"Image host API key" flag:"image-host-api-key"`
	Endpoint string `default:"" usage:"Image host upload URL override"`
	MaxBytes int64  `default:"5242880" usage:"Largest accepted image in bytes"`
}

// CheckoutConfig holds pricing and order handoff settings.
type CheckoutConfig struct {
	DeliveryFee string `default:"15" usage:"Flat delivery fee for non-empty bags"`
	Currency    string `default:"INR" usage:"Default ISO 4217 currency"`
	// WhatsAppPhone enables the whatsapp payment method when set.
	WhatsAppPhone string `default:"" usage:"Store WhatsApp number receiving orders" flag:"whatsapp-phone"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.Session.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.Session.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set STOREFRONT_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Session.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Session.RedisURL == "" {
			return errors.New("redis URL is required: set STOREFRONT_SESSION_REDIS_URL or REDIS_URL")
		}
	default:
		return errors.Errorf("unknown session driver %q", c.Session.Driver)
	}
	if len(c.Session.Secret) < 32 {
		return errors.New("session secret must be at least 32 bytes")
	}

	switch c.Identity.Driver {
	case DriverMemory:
	case DriverFirebase:
		if c.Identity.FirebaseAPIKey == "" {
			return errors.New("firebase API key is required for the firebase identity driver")
		}
	default:
		return errors.Errorf("unknown identity driver %q", c.Identity.Driver)
	}

	if _, err := c.Checkout.Fee(); err != nil {
		return err
	}
	return nil
}

// Fee parses the configured delivery fee.
func (c CheckoutConfig) Fee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse delivery fee %q", c.DeliveryFee)
	}
	if fee.IsNegative() {
		return decimal.Zero, errors.Errorf("delivery fee %s is negative", fee)
	}
	return fee, nil
}
