package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	// Engagement store (embedded Badger database).
	EngagementDBPath string

	// Quota accounting. The daily counter resets on calendar-date change in
	// this timezone.
	QuotaTimezone string

	// Auth.
	GoogleClientID string
	GoogleIssuer   string

	// Avatar storage. When S3 is not configured the server falls back to the
	// local filesystem store under AvatarDir, served from AvatarBaseURL.
	AvatarDir       string
	AvatarBaseURL   string
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool

	// Billing provider (hosted checkout).
	CheckoutAPIBaseURL   string
	CheckoutAPIKey       string
	CheckoutPriceID      string
	CheckoutSuccessURL   string
	CheckoutCancelURL    string
	CheckoutWebhookKey   string
	UltimatePriceCents   int
	UltimatePriceDisplay string

	// Misc infrastructure.
	GeoIPDBPath      string
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		EngagementDBPath: getEnv("ENGAGEMENT_DB_PATH", "data/engagement"),
		QuotaTimezone:    getEnv("QUOTA_TIMEZONE", "America/Sao_Paulo"),
		GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleIssuer:     getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),

		AvatarDir:       getEnv("AVATAR_DIR", "data/avatars"),
		AvatarBaseURL:   "",
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        os.Getenv("S3_REGION"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3Bucket:        getEnv("S3_BUCKET", "avatars"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:  getEnvBool("S3_USE_PATH_STYLE", false),

		CheckoutAPIBaseURL:   getEnv("CHECKOUT_API_BASE_URL", "https://api.stripe.com/v1"),
		CheckoutAPIKey:       os.Getenv("CHECKOUT_API_KEY"),
		CheckoutPriceID:      os.Getenv("CHECKOUT_PRICE_ID"),
		CheckoutSuccessURL:   getEnv("CHECKOUT_SUCCESS_URL", "https://flyerflix.com/assinatura/sucesso"),
		CheckoutCancelURL:    getEnv("CHECKOUT_CANCEL_URL", "https://flyerflix.com/assinatura"),
		CheckoutWebhookKey:   os.Getenv("CHECKOUT_WEBHOOK_SECRET"),
		UltimatePriceCents:   getEnvInt("ULTIMATE_PRICE_CENTS", 2390),
		UltimatePriceDisplay: getEnv("ULTIMATE_PRICE_DISPLAY", "R$ 23,90/mes"),

		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	cfg.AvatarBaseURL = getEnv("AVATAR_BASE_URL", "http://localhost:"+cfg.Port+"/static/avatars")

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// S3Configured reports whether enough S3 settings are present to use object
// storage for avatars.
func (c *Config) S3Configured() bool {
	return c.S3Region != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3PublicBaseURL != ""
}

// QuotaLocation resolves the quota timezone, falling back to UTC on a bad name.
func (c *Config) QuotaLocation() *time.Location {
	loc, err := time.LoadLocation(c.QuotaTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
