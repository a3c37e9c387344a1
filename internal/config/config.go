package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Serviceable area, comma separated "zip" or "zip=zone" entries
	ServiceAreaZips []string

	// Verification flow
	VerificationTTL         time.Duration
	VerificationMaxAttempts int

	// Hand-off stash between signup pages
	HandoffTTL time.Duration

	// Reminder worker
	ReminderInterval time.Duration

	// Stripe Checkout
	StripeSecretKey  string
	StripeSuccessURL string
	StripeCancelURL  string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// SMS provider (REST)
	SMSProviderBaseURL string
	SMSProviderAPIKey  string
	SMSFromNumber      string

	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ServiceAreaZips: getEnvAsList("SERVICE_AREA_ZIPS", nil),

		VerificationTTL:         getEnvAsDuration("VERIFICATION_TTL", 15*time.Minute),
		VerificationMaxAttempts: getEnvAsInt("VERIFICATION_MAX_ATTEMPTS", 5),

		HandoffTTL: getEnvAsDuration("HANDOFF_TTL", 1*time.Hour),

		ReminderInterval: getEnvAsDuration("REMINDER_INTERVAL", 1*time.Hour),

		StripeSecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
		StripeSuccessURL: getEnv("STRIPE_SUCCESS_URL", ""),
		StripeCancelURL:  getEnv("STRIPE_CANCEL_URL", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "CurbCycle"),

		SMSProviderBaseURL: getEnv("SMS_PROVIDER_BASE_URL", ""),
		SMSProviderAPIKey:  getEnv("SMS_PROVIDER_API_KEY", ""),
		SMSFromNumber:      getEnv("SMS_FROM_NUMBER", ""),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// CheckoutURLs returns the Stripe success and cancel redirect targets.
// Explicit settings win; otherwise both are derived from PublicBaseURL.
func (c *Config) CheckoutURLs() (success, cancel string) {
	success = c.StripeSuccessURL
	cancel = c.StripeCancelURL
	base := strings.TrimRight(c.PublicBaseURL, "/")
	if success == "" && base != "" {
		success = base + "/signup/success"
	}
	if cancel == "" && base != "" {
		cancel = base + "/signup/canceled"
	}
	return success, cancel
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
