package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Session tokens
	JWTSecret        string
	JWTIssuer        string
	UserSessionTTL   time.Duration
	AdminSessionTTL  time.Duration
	FederatedSessTTL time.Duration

	// Action tokens
	VerificationTTL time.Duration
	ResetTTL        time.Duration

	BcryptCost int

	// Mail
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	MailFrom      string
	PublicBaseURL string

	// Admin bootstrap
	CreateDefaultAdmin   bool
	AdminEmail           string
	AdminInitialPassword string

	// Payments
	StripeSecretKey string

	// Federated login
	GoogleClientID string
	AppleBundleID  string

	// Optional infrastructure
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string
	SentryDSN    string
	AppEnv       string

	// Server
	Port             string
	CORSOrigins      string
	RateLimitMax     int
	AuthRateLimitMax int
	LogRetention     time.Duration
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "gymbro"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "gymbro"),
		UserSessionTTL:   parseDuration(getEnv("USER_SESSION_TTL", "2h"), 2*time.Hour),
		AdminSessionTTL:  parseDuration(getEnv("ADMIN_SESSION_TTL", "8h"), 8*time.Hour),
		FederatedSessTTL: parseDuration(getEnv("FEDERATED_SESSION_TTL", "720h"), 30*24*time.Hour),

		VerificationTTL: parseDuration(getEnv("VERIFICATION_TTL", "24h"), 24*time.Hour),
		ResetTTL:        parseDuration(getEnv("RESET_TTL", "1h"), time.Hour),

		BcryptCost: getInt("BCRYPT_COST", 12),

		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getInt("SMTP_PORT", 465),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPass:      getEnv("SMTP_PASS", ""),
		MailFrom:      getEnv("MAIL_FROM", "GymBro <noreply@gymbro.app>"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),

		CreateDefaultAdmin:   getBool("CREATE_DEFAULT_ADMIN", false),
		AdminEmail:           getEnv("ADMIN_EMAIL", ""),
		AdminInitialPassword: getEnv("ADMIN_INITIAL_PASSWORD", ""),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		AppleBundleID:  getEnv("APPLE_BUNDLE_ID", ""),

		RedisURL:     getEnv("REDIS_URL", ""),
		KafkaBrokers: parseCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "gymbro.account-events"),
		SentryDSN:    getEnv("SENTRY_DSN", ""),
		AppEnv:       getEnv("APP_ENV", "development"),

		Port:             getEnv("PORT", "3000"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
		RateLimitMax:     getInt("RATE_LIMIT_MAX", 60),
		AuthRateLimitMax: getInt("AUTH_RATE_LIMIT_MAX", 10),
		LogRetention:     parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
	}
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// SMTPConfigured reports whether real mail delivery is possible.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		slog.Warn("invalid integer, using default", "key", key, "value", val, "default", fallback)
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
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

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
