package config

import (
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func New() (*Config, error) {
	var Config Config
	err := godotenv.Load(".env")
	if err != nil {
		logrus.Debug("no .env file found, using process environment")
	}
	if err := env.Parse(&Config); err != nil {
		logrus.Fatalf("Error initializing: %s", err.Error())
		os.Exit(1)
	}
	Config.APP.ConfigureLogger()
	return &Config, nil
}

type Config struct {
	APP
	DB
	Ledger
	Security
	Processor
	Webhook
	Retry
	Kafka
}

type DB struct {
	HOST     string `env:"DB_HOST"`
	USER     string `env:"DB_USER"`
	PASSWORD string `env:"DB_PASSWORD"`
	NAME     string `env:"DB_NAME"`
	PORT     string `env:"DB_PORT"`
	SSLMODE  string `env:"DB_SSLMODE" envDefault:"disable"`
}

type APP struct {
	PORT         string `env:"APP_PORT" envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	SiteName     string `env:"APP_SITE_NAME" envDefault:"Hosting plan"`
	RedirectURL  string `env:"APP_REDIRECT_URL" envDefault:"http://localhost:8080/thank-you"`
	AllowOrigin  string `env:"APP_ALLOW_ORIGIN" envDefault:"*"`
	RequireCSRF  bool   `env:"APP_REQUIRE_CSRF" envDefault:"true"`
	MetricsOn    bool   `env:"METRICS_ENABLED" envDefault:"true"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`
}

// ConfigureLogger applies the level and formatter to the standard logrus logger.
func (a APP) ConfigureLogger() {
	level, err := logrus.ParseLevel(strings.ToLower(a.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if strings.EqualFold(a.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

type Ledger struct {
	Driver     string `env:"LEDGER_STORE" envDefault:"bolt"`
	BoltPath   string `env:"LEDGER_BOLT_PATH" envDefault:"checkout.db"`
	MaxEntries int    `env:"LEDGER_MAX_ENTRIES" envDefault:"1000"`
	QuotaBytes int    `env:"LEDGER_QUOTA_BYTES" envDefault:"5242880"`
}

type Security struct {
	MaxAttempts        int           `env:"SECURITY_RATE_LIMIT_MAX_ATTEMPTS" envDefault:"5"`
	Window             time.Duration `env:"SECURITY_RATE_LIMIT_WINDOW" envDefault:"15m"`
	BlockDuration      time.Duration `env:"SECURITY_RATE_LIMIT_BLOCK" envDefault:"1h"`
	CleanupInterval    time.Duration `env:"SECURITY_RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
	SessionTTL         time.Duration `env:"SECURITY_SESSION_TTL" envDefault:"24h"`
	TokenSecret        string        `env:"SECURITY_TOKEN_SECRET"`
	AdminAccessToken   string        `env:"SECURITY_ADMIN_ACCESS_TOKEN"`
	SuspiciousLogLimit int           `env:"SECURITY_SUSPICIOUS_LOG_LIMIT" envDefault:"1000"`
}

type Processor struct {
	BaseURL   string        `env:"LEMONSQUEEZY_BASE_URL" envDefault:"https://api.lemonsqueezy.com/v1"`
	APIKey    string        `env:"LEMONSQUEEZY_API_KEY"`
	StoreID   string        `env:"LEMONSQUEEZY_STORE_ID"`
	VariantID string        `env:"LEMONSQUEEZY_VARIANT_ID"`
	Timeout   time.Duration `env:"LEMONSQUEEZY_TIMEOUT" envDefault:"30s"`
}

type Webhook struct {
	Secret        string `env:"WEBHOOK_SECRET"`
	SignatureMode string `env:"WEBHOOK_SIGNATURE_MODE" envDefault:"hmac"`
	Deduplicate   bool   `env:"WEBHOOK_DEDUPLICATE" envDefault:"true"`
}

type Retry struct {
	MaxRetries int           `env:"RETRY_MAX_RETRIES" envDefault:"3"`
	BaseDelay  time.Duration `env:"RETRY_BASE_DELAY" envDefault:"2s"`
}

type Kafka struct {
	Brokers          string        `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	WebhookGroup     string        `env:"KAFKA_WEBHOOK_GROUP_ID" envDefault:"checkout-service"`
	PublishTopics    string        `env:"KAFKA_PUBLISH_TOPICS" envDefault:"checkout.errors,checkout.analytics,checkout.dlq"`
	SubscriberTopics string        `env:"KAFKA_SUBSCRIBER_TOPICS" envDefault:"processor.webhooks"`
	ReportTimeout    time.Duration `env:"KAFKA_REPORT_TIMEOUT" envDefault:"5s"`

	RetryMaxAttempts int           `env:"KAFKA_RETRY_MAX_ATTEMPTS" envDefault:"5"`
	RetryBaseDelay   time.Duration `env:"KAFKA_RETRY_BASE_DELAY" envDefault:"100ms"`
	RetryMaxDelay    time.Duration `env:"KAFKA_RETRY_MAX_DELAY" envDefault:"10s"`
	RetryJitter      bool          `env:"KAFKA_RETRY_JITTER" envDefault:"true"`
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

func (k Kafka) GetRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: k.RetryMaxAttempts,
		BaseDelay:   k.RetryBaseDelay,
		MaxDelay:    k.RetryMaxDelay,
		Jitter:      k.RetryJitter,
	}
}

// Backoff doubles BaseDelay per attempt up to MaxDelay, spreading it by +-15% when Jitter is set.
func (r RetryConfig) Backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * r.BaseDelay

	if delay > r.MaxDelay {
		delay = r.MaxDelay
	}

	if r.Jitter {
		jitter := time.Duration(rand.Float64() * float64(delay) * 0.3)
		delay = delay + jitter - time.Duration(float64(delay)*0.15)
	}

	return delay
}

// BrokerList splits the comma separated broker setting.
func (k Kafka) BrokerList() []string {
	return splitList(k.Brokers)
}

func (k Kafka) PublishTopicList() []string {
	return splitList(k.PublishTopics)
}

func (k Kafka) SubscriberTopicList() []string {
	return splitList(k.SubscriberTopics)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
