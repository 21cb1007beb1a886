// Package config provides runtime configuration values for the service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	ServiceName     string
	Env             string
	LogLevel        string
	LogFile         string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	StoreDriver string
	DatabaseURL string
	DBMaxConns  int
	// DBLockTimeout bounds row-lock waits inside a transaction.
	DBLockTimeout time.Duration

	// RedisAddr enables the Redis cart store when set.
	RedisAddr string
	CartTTL   time.Duration

	// KafkaBrokers enables event forwarding when set (comma separated).
	KafkaBrokers string
	KafkaTopic   string

	// WebhookLogPath enables the SQLite webhook delivery log when set.
	WebhookLogPath string

	PaystackSecretKey   string
	PaystackBaseURL     string
	PaystackCallbackURL string
	PaystackTimeout     time.Duration

	Currency         string
	TaxRate          decimal.Decimal
	PricesIncludeTax bool
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	return time.Duration(atoienv(key, defMs)) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Load reads .env when present, then the environment, with defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	rate, err := decimal.NewFromString(getenv("TAX_RATE", "0.16"))
	if err != nil {
		return Config{}, fmt.Errorf("config: TAX_RATE: %w", err)
	}

	c := Config{
		ServiceName:     getenv("SERVICE_NAME", "minishop-checkout"),
		Env:             getenv("ENV", "dev"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFile:         getenv("LOG_FILE", ""),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 10),

		StoreDriver:   strings.ToLower(getenv("STORE_DRIVER", StoreMemory)),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		DBMaxConns:    atoienv("DB_MAX_CONNS", 10),
		DBLockTimeout: durenvms("DB_LOCK_TIMEOUT_MS", 5000),

		RedisAddr: getenv("REDIS_ADDR", ""),
		CartTTL:   durenvs("CART_TTL", 7*24*3600),

		KafkaBrokers: getenv("KAFKA_BROKERS", ""),
		KafkaTopic:   getenv("KAFKA_TOPIC", "minishop.checkout.events"),

		WebhookLogPath: getenv("WEBHOOK_LOG_PATH", ""),

		PaystackSecretKey:   getenv("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:     getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackCallbackURL: getenv("PAYSTACK_CALLBACK_URL", ""),
		PaystackTimeout:     durenvms("PAYSTACK_TIMEOUT_MS", 10000),

		Currency:         strings.ToUpper(getenv("CURRENCY", "KES")),
		TaxRate:          rate,
		PricesIncludeTax: boolenv("PRICES_INCLUDE_TAX", true),
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StorePostgres, c.StoreDriver))
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("TAX_RATE must be in [0, 1), got %s", c.TaxRate))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("CURRENCY must be a 3-letter code, got %q", c.Currency))
	}
	if c.DBLockTimeout <= 0 {
		errs = append(errs, errors.New("DB_LOCK_TIMEOUT_MS must be positive"))
	}
	if c.PaystackTimeout <= 0 {
		errs = append(errs, errors.New("PAYSTACK_TIMEOUT_MS must be positive"))
	}
	if c.KafkaBrokers != "" && c.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
