package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	GatewayMock     = "mock"
	GatewayPaystack = "paystack"
)

// Config holds environment-driven configuration.
type Config struct {
	Env         string
	Addr        string
	DatabaseURL string
	JWTSecret   string
	LogJSON     bool

	Currency              string
	ShippingFlatFee       decimal.Decimal
	FreeShippingThreshold decimal.Decimal

	PaymentGateway     string
	PaystackSecretKey  string
	PaystackBaseURL    string
	PaymentCallbackURL string
	GatewayTimeout     time.Duration

	KafkaBrokers       string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

func Default() Config {
	return Config{
		Env:                   "development",
		Addr:                  ":8080",
		LogJSON:               true,
		Currency:              "NGN",
		ShippingFlatFee:       decimal.NewFromInt(500),
		FreeShippingThreshold: decimal.NewFromInt(50000),
		PaymentGateway:        GatewayMock,
		PaystackBaseURL:       "https://api.paystack.co",
		GatewayTimeout:        15 * time.Second,
		KafkaTopicPrefix:      "commerce",
		OutboxPollInterval:    2 * time.Second,
		OutboxBatchSize:       100,
	}
}

// Load reads .env.local and .env, if present, without overriding variables
// already set in the environment, then builds and validates a Config.
func Load() (Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// FromEnv builds a Config from lookup, falling back to Default for unset keys.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	r := reader{lookup: lookup}

	r.str("APP_ENV", &cfg.Env)
	r.str("APP_ADDR", &cfg.Addr)
	r.str("DATABASE_URL", &cfg.DatabaseURL)
	r.str("JWT_SECRET", &cfg.JWTSecret)
	r.boolean("LOG_JSON", &cfg.LogJSON)

	r.str("DEFAULT_CURRENCY", &cfg.Currency)
	cfg.Currency = strings.ToUpper(cfg.Currency)
	r.dec("SHIPPING_FLAT_FEE", &cfg.ShippingFlatFee)
	r.dec("FREE_SHIPPING_THRESHOLD", &cfg.FreeShippingThreshold)

	r.str("PAYMENT_GATEWAY", &cfg.PaymentGateway)
	cfg.PaymentGateway = strings.ToLower(cfg.PaymentGateway)
	r.str("PAYSTACK_SECRET_KEY", &cfg.PaystackSecretKey)
	r.str("PAYSTACK_BASE_URL", &cfg.PaystackBaseURL)
	r.str("PAYMENT_CALLBACK_URL", &cfg.PaymentCallbackURL)
	r.duration("GATEWAY_TIMEOUT", &cfg.GatewayTimeout)

	r.str("KAFKA_BROKERS", &cfg.KafkaBrokers)
	r.str("KAFKA_TOPIC_PREFIX", &cfg.KafkaTopicPrefix)
	r.duration("OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	r.integer("OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)

	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.PaymentGateway {
	case GatewayMock:
	case GatewayPaystack:
		if c.PaystackSecretKey == "" {
			errs = append(errs, errors.New("config: PAYSTACK_SECRET_KEY is required when PAYMENT_GATEWAY=paystack"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown PAYMENT_GATEWAY %q", c.PaymentGateway))
	}
	if c.ShippingFlatFee.IsNegative() {
		errs = append(errs, errors.New("config: SHIPPING_FLAT_FEE cannot be negative"))
	}
	if c.FreeShippingThreshold.IsNegative() {
		errs = append(errs, errors.New("config: FREE_SHIPPING_THRESHOLD cannot be negative"))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("config: DEFAULT_CURRENCY %q is not a 3-letter code", c.Currency))
	}
	if c.OutboxBatchSize <= 0 {
		errs = append(errs, errors.New("config: OUTBOX_BATCH_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// KafkaEnabled reports whether outbox events go to a broker rather than the log.
func (c Config) KafkaEnabled() bool { return strings.TrimSpace(c.KafkaBrokers) != "" }

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) get(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *reader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *reader) boolean(key string, dst *bool) {
	if v, ok := r.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = b
	}
}

func (r *reader) integer(key string, dst *int) {
	if v, ok := r.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (r *reader) dec(key string, dst *decimal.Decimal) {
	if v, ok := r.get(key); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = d
	}
}

func (r *reader) duration(key string, dst *time.Duration) {
	if v, ok := r.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("config: %s: %w", key, err))
			return
		}
		*dst = d
	}
}
