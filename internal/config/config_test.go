package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.VerificationTTL)
	assert.Equal(t, 5, cfg.VerificationMaxAttempts)
	assert.Equal(t, time.Hour, cfg.HandoffTTL)
	assert.Equal(t, "CurbCycle", cfg.SendGridFromName)
	assert.Nil(t, cfg.ServiceAreaZips)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("VERIFICATION_MAX_ATTEMPTS", "3")
	t.Setenv("VERIFICATION_TTL", "5m")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("SERVICE_AREA_ZIPS", "97201, 97202=eastside ,97203")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.VerificationMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.VerificationTTL)
	assert.True(t, cfg.RedisTLS)
	assert.Equal(t, []string{"97201", "97202=eastside", "97203"}, cfg.ServiceAreaZips)
}

func TestCheckoutURLsDeriveFromPublicBaseURL(t *testing.T) {
	cfg := &Config{PublicBaseURL: "https://signup.curbcycle.example/"}
	success, cancel := cfg.CheckoutURLs()
	assert.Equal(t, "https://signup.curbcycle.example/signup/success", success)
	assert.Equal(t, "https://signup.curbcycle.example/signup/canceled", cancel)
}

func TestCheckoutURLsExplicitSettingsWin(t *testing.T) {
	cfg := &Config{
		PublicBaseURL:    "https://signup.curbcycle.example",
		StripeSuccessURL: "https://elsewhere.example/done",
	}
	success, cancel := cfg.CheckoutURLs()
	assert.Equal(t, "https://elsewhere.example/done", success)
	assert.Equal(t, "https://signup.curbcycle.example/signup/canceled", cancel)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("VERIFICATION_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("VERIFICATION_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 5, cfg.VerificationMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.VerificationTTL)
}
