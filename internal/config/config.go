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

	// Scheduling policy
	BufferMinutes    int
	SlotStepMinutes  int
	SpecialRoomID    string
	CouplesRoomOrder []string
	HoursOpen        string
	HoursClose       string
	ClosedWeekdays   []string

	AdminJWTSecret string

	PaymentWebhookSecret string

	CRMWebhookURL     string
	CRMWebhookTimeout time.Duration

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	ShutdownGrace time.Duration
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

		BufferMinutes:    getEnvAsInt("BOOKING_BUFFER_MINUTES", 15),
		SlotStepMinutes:  getEnvAsInt("BOOKING_SLOT_STEP_MINUTES", 15),
		SpecialRoomID:    getEnv("SPECIAL_SCRUB_ROOM_ID", ""),
		CouplesRoomOrder: getEnvAsList("COUPLES_ROOM_ORDER", nil),
		HoursOpen:        getEnv("BUSINESS_HOURS_OPEN", "09:00"),
		HoursClose:       getEnv("BUSINESS_HOURS_CLOSE", "18:00"),
		ClosedWeekdays:   getEnvAsList("CLOSED_WEEKDAYS", []string{"Sunday"}),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),

		CRMWebhookURL:     getEnv("CRM_WEBHOOK_URL", ""),
		CRMWebhookTimeout: getEnvAsDuration("CRM_WEBHOOK_TIMEOUT", 10*time.Second),

		// SendGrid Email Configuration
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Serenity Spa"),

		ShutdownGrace: getEnvAsDuration("SHUTDOWN_GRACE", 15*time.Second),
	}
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

// getEnvAsList splits a comma-separated environment variable, trimming
// whitespace and dropping empty entries.
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
