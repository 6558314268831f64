// Package config loads gateway settings from the environment, following the
// spec's §6 configuration list plus the ambient operational settings the
// process needs to run.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice sales-training gateway.
type Config struct {
	Port                     string
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string
	AllowAnyOrigin           bool

	DeepgramAPIKey string

	LLMAPIKey     string
	LLMModel      string
	LLMBaseURL    string
	LLMProvider   string
	LLMTimeoutMS  int

	TTSAPIKey  string
	TTSBaseURL string
	TTSVoiceID string
	TTSProvider string

	FallbackSTTProvider string
	FallbackTTSProvider string

	AuthJWTSecret string
	AuthJWTIssuer string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                     envOrDefault("PORT", "3001"),
		BindAddr:                 envOrDefault("BIND_ADDR", ""),
		MetricsNamespace:         envOrDefault("METRICS_NAMESPACE", "salestrain"),
		DeepgramAPIKey:           trimmedEnv("DEEPGRAM_API_KEY"),
		LLMAPIKey:                trimmedEnv("LLM_API_KEY"),
		LLMModel:                 envOrDefault("LLM_MODEL", "gpt-4o-mini"),
		LLMBaseURL:               envOrDefault("LLM_BASE_URL", "https://api.openai.com"),
		LLMProvider:              envOrDefault("LLM_PROVIDER", "openai"),
		TTSAPIKey:                trimmedEnv("TTS_API_KEY"),
		TTSBaseURL:               envOrDefault("TTS_BASE_URL", ""),
		TTSVoiceID:               envOrDefault("TTS_VOICE_ID", ""),
		TTSProvider:              envOrDefault("TTS_PROVIDER", "http"),
		FallbackSTTProvider:      envOrDefault("FALLBACK_STT_PROVIDER", ""),
		FallbackTTSProvider:      envOrDefault("FALLBACK_TTS_PROVIDER", ""),
		AuthJWTSecret:            trimmedEnv("AUTH_JWT_SECRET"),
		AuthJWTIssuer:            envOrDefault("AUTH_JWT_ISSUER", "salestrain-gateway"),
		DatabaseURL:              trimmedEnv("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 2 * time.Minute,
	}

	if cfg.BindAddr == "" {
		cfg.BindAddr = ":" + cfg.Port
	}

	var err error
	cfg.LLMTimeoutMS, err = intFromEnv("LLM_TIMEOUT_MS", 10000)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout, err = durationFromEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("ALLOW_ANY_ORIGIN", false)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.LLMTimeoutMS <= 0 {
		return Config{}, fmt.Errorf("LLM_TIMEOUT_MS must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
