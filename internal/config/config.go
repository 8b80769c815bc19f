package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Identity IdentityConfig
	App      AppConfig
	Metrics  MetricsConfig
	Session  SessionConfig
	Payment  PaymentConfig
	Delivery DeliveryConfig
	Menu     MenuConfig
	Checkout CheckoutConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	// Enable switches the ephemeral stores to Redis; otherwise they are kept in process memory
	Enable   bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers             []string
	DeliveryIntentTopic string
	ConsumerGroup       string
}

// IdentityConfig holds the hosted identity provider settings
type IdentityConfig struct {
	// JWTSecret verifies bearer tokens issued by the identity provider (HS256)
	JWTSecret     string
	WebhookSecret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type MetricsConfig struct {
	Enable bool
	Host   string
	Port   int
}

type SessionConfig struct {
	AutoTransition     bool
	TransitionInterval time.Duration
	OutboxInterval     time.Duration
}

type PaymentConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type DeliveryConfig struct {
	BaseURL       string
	DeveloperID   string
	KeyID         string
	SigningSecret string
	WebhookSecret string
	PickupAddress string
	PickupName    string
	PickupPhone   string
}

type MenuConfig struct {
	CacheTTL           time.Duration
	PartnerBaseURL     string
	PartnerTokenURL    string
	PartnerClientID    string
	PartnerSecret      string
	ScrapeUserAgent    string
	ScrapeTimeout      time.Duration
	GooglePlacesAPIKey string
}

type CheckoutConfig struct {
	ServiceFeeRate decimal.Decimal
	PlatformFee    decimal.Decimal
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "groupmeal"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Enable:   getEnvBool("REDIS_ENABLE", true),
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	config.Kafka = KafkaConfig{
		Brokers:             getEnvSlice("KAFKA_BROKERS"),
		DeliveryIntentTopic: getEnv("KAFKA_DELIVERY_INTENT_TOPIC", "delivery.intents"),
		ConsumerGroup:       getEnv("KAFKA_CONSUMER_GROUP", "groupmeal-delivery-dispatcher"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	origins := getEnvSlice("ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: origins,
	}

	metricsPort, err := strconv.Atoi(getEnv("METRICS_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_PORT: %w", err)
	}

	config.Metrics = MetricsConfig{
		Enable: getEnvBool("METRICS_ENABLE", true),
		Host:   getEnv("METRICS_HOST", "0.0.0.0"),
		Port:   metricsPort,
	}

	config.Identity = IdentityConfig{
		JWTSecret:     getEnv("IDENTITY_JWT_SECRET", ""),
		WebhookSecret: getEnv("IDENTITY_WEBHOOK_SECRET", ""),
	}

	// Session configuration
	transitionInterval, err := time.ParseDuration(getEnv("SESSION_TRANSITION_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TRANSITION_INTERVAL: %w", err)
	}
	outboxInterval, err := time.ParseDuration(getEnv("OUTBOX_RELAY_INTERVAL", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_RELAY_INTERVAL: %w", err)
	}

	config.Session = SessionConfig{
		AutoTransition:     getEnvBool("SESSION_AUTO_TRANSITION", false),
		TransitionInterval: transitionInterval,
		OutboxInterval:     outboxInterval,
	}

	config.Payment = PaymentConfig{
		BaseURL:       getEnv("PAYMENT_API_BASE_URL", "https://api.stripe.com"),
		SecretKey:     getEnv("PAYMENT_SECRET_KEY", ""),
		WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		Currency:      getEnv("PAYMENT_CURRENCY", "usd"),
	}

	config.Delivery = DeliveryConfig{
		BaseURL:       getEnv("DELIVERY_API_BASE_URL", "https://openapi.doordash.com"),
		DeveloperID:   getEnv("DELIVERY_DEVELOPER_ID", ""),
		KeyID:         getEnv("DELIVERY_KEY_ID", ""),
		SigningSecret: getEnv("DELIVERY_SIGNING_SECRET", ""),
		WebhookSecret: getEnv("DELIVERY_WEBHOOK_SECRET", ""),
		PickupAddress: getEnv("DELIVERY_PICKUP_ADDRESS", ""),
		PickupName:    getEnv("DELIVERY_PICKUP_NAME", ""),
		PickupPhone:   getEnv("DELIVERY_PICKUP_PHONE", ""),
	}

	menuTTL, err := time.ParseDuration(getEnv("MENU_CACHE_TTL", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid MENU_CACHE_TTL: %w", err)
	}
	scrapeTimeout, err := time.ParseDuration(getEnv("MENU_SCRAPE_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MENU_SCRAPE_TIMEOUT: %w", err)
	}

	config.Menu = MenuConfig{
		CacheTTL:           menuTTL,
		PartnerBaseURL:     getEnv("MENU_PARTNER_BASE_URL", ""),
		PartnerTokenURL:    getEnv("MENU_PARTNER_TOKEN_URL", ""),
		PartnerClientID:    getEnv("MENU_PARTNER_CLIENT_ID", ""),
		PartnerSecret:      getEnv("MENU_PARTNER_CLIENT_SECRET", ""),
		ScrapeUserAgent:    getEnv("MENU_SCRAPE_USER_AGENT", "groupmeal-menu-bot/1.0"),
		ScrapeTimeout:      scrapeTimeout,
		GooglePlacesAPIKey: getEnv("GOOGLE_PLACES_API_KEY", ""),
	}

	serviceFeeRate, err := decimal.NewFromString(getEnv("CHECKOUT_SERVICE_FEE_RATE", "0.05"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKOUT_SERVICE_FEE_RATE: %w", err)
	}
	platformFee, err := decimal.NewFromString(getEnv("CHECKOUT_PLATFORM_FEE", "1.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKOUT_PLATFORM_FEE: %w", err)
	}

	config.Checkout = CheckoutConfig{
		ServiceFeeRate: serviceFeeRate,
		PlatformFee:    platformFee,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Identity.JWTSecret == "" {
		return fmt.Errorf("IDENTITY_JWT_SECRET is required")
	}
	if c.Identity.WebhookSecret == "" {
		return fmt.Errorf("IDENTITY_WEBHOOK_SECRET is required")
	}
	if c.Payment.WebhookSecret == "" {
		return fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
	}
	if c.Delivery.WebhookSecret == "" && c.IsProduction() {
		return fmt.Errorf("DELIVERY_WEBHOOK_SECRET is required in production")
	}
	if c.Checkout.ServiceFeeRate.IsNegative() || c.Checkout.PlatformFee.IsNegative() {
		return fmt.Errorf("checkout fees must not be negative")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	return result
}
