package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT (issued by the identity provider, verified here)
	JWTSecret string

	// ElevenLabs provider
	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	ElevenLabsTimeout time.Duration

	// Object storage (S3 / MinIO)
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PresignTTL   time.Duration

	// Analytics sink (no-op when endpoint is empty)
	AnalyticsEndpoint string
	AnalyticsAPIKey   string

	// Billing webhook
	WebhookAuthToken string

	// Upload limits
	MaxUploadBytes int64
	MaxTextChars   int

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "audiomint_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsBaseURL: getEnv("ELEVENLABS_API_URL", "https://api.elevenlabs.io"),
		ElevenLabsTimeout: parseDuration(getEnv("ELEVENLABS_TIMEOUT", "120s"), 120*time.Second),

		S3Bucket:     getEnv("S3_BUCKET", "audiomint-audio"),
		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3PresignTTL: parseDuration(getEnv("S3_PRESIGN_TTL", "15m"), 15*time.Minute),

		AnalyticsEndpoint: getEnv("ANALYTICS_ENDPOINT", ""),
		AnalyticsAPIKey:   getEnv("ANALYTICS_API_KEY", ""),

		WebhookAuthToken: getEnv("WEBHOOK_AUTH_TOKEN", ""),

		MaxUploadBytes: parseInt64(getEnv("MAX_UPLOAD_BYTES", ""), 10*1024*1024),
		MaxTextChars:   int(parseInt64(getEnv("MAX_TEXT_CHARS", ""), 5000)),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt64(s string, fallback int64) int64 {
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
