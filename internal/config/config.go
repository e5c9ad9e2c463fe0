package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string
	DemoMode    bool

	RedisAddr     string
	RedisPassword string

	// Twilio voice webhook settings.
	TwilioAuthToken      string
	TransferNumber       string
	GatherTimeoutSecs    int
	SpeechTimeoutSecs    int
	DialTimeoutSecs      int
	CollaboratorTimeout  time.Duration
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DemoMode:    getEnvAsBool("DEMO_MODE", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TransferNumber:       getEnv("CLINIC_TRANSFER_NUMBER", "+15550100100"),
		GatherTimeoutSecs:    getEnvAsInt("GATHER_TIMEOUT_SECS", 10),
		SpeechTimeoutSecs:    getEnvAsInt("SPEECH_TIMEOUT_SECS", 3),
		DialTimeoutSecs:      getEnvAsInt("DIAL_TIMEOUT_SECS", 30),
		CollaboratorTimeout:  getEnvAsDuration("COLLABORATOR_TIMEOUT", 5*time.Second),
		SessionTTL:           getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
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
