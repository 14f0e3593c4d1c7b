package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Database      DatabaseConfig
	Redis         RedisConfig
	Session       SessionConfig
	CORS          CORSConfig
	Log           LogConfig
	Mail          MailConfig
	Uploads       UploadsConfig
	Analytics     AnalyticsConfig
	Dashboard     DashboardConfig
	RateLimit     RateLimitConfig
	Notifications NotificationRetryConfig
	Bootstrap     BootstrapConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig controls the admin session cookie.
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig configures outbound notification mail. An empty SenderPassword
// switches the mailer to log-only mode.
type MailConfig struct {
	SMTPServer     string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	AdminPanelURL  string
}

// UploadsConfig controls photo storage and signed photo URLs.
type UploadsConfig struct {
	Dir             string
	MaxBytes        int64
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// AnalyticsConfig governs cache behaviour for analytics endpoints.
type AnalyticsConfig struct {
	CacheTTL time.Duration
}

// DashboardConfig governs cache tuning for the status counters.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// RateLimitConfig bounds public submissions per client IP per day.
type RateLimitConfig struct {
	SubmitPerDay int
}

// NotificationRetryConfig toggles the background retry of failed authority mail.
type NotificationRetryConfig struct {
	RetryEnabled bool
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
}

// BootstrapConfig feeds the setup-admin command.
type BootstrapConfig struct {
	Username string
	Email    string
	Password string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret:       v.GetString("SESSION_SECRET"),
		TTL:          parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		CookieName:   v.GetString("SESSION_COOKIE_NAME"),
		CookieSecure: v.GetBool("SESSION_COOKIE_SECURE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		SMTPServer:     v.GetString("SMTP_SERVER"),
		SMTPPort:       v.GetInt("SMTP_PORT"),
		SenderEmail:    v.GetString("SENDER_EMAIL"),
		SenderPassword: v.GetString("SENDER_PASSWORD"),
		AdminPanelURL:  strings.TrimRight(v.GetString("ADMIN_PANEL_URL"), "/"),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_BYTES")
	if maxUpload <= 0 {
		maxUpload = 16 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Dir:             v.GetString("UPLOAD_DIR"),
		MaxBytes:        maxUpload,
		SignedURLSecret: v.GetString("PHOTO_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("PHOTO_URL_TTL"), time.Hour),
	}

	cfg.Analytics = AnalyticsConfig{
		CacheTTL: parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		SubmitPerDay: v.GetInt("SUBMIT_RATE_LIMIT"),
	}

	cfg.Notifications = NotificationRetryConfig{
		RetryEnabled: v.GetBool("NOTIFICATION_RETRY_ENABLED"),
		Workers:      v.GetInt("NOTIFICATION_RETRY_WORKERS"),
		MaxRetries:   v.GetInt("NOTIFICATION_RETRY_MAX"),
		RetryDelay:   parseDuration(v.GetString("NOTIFICATION_RETRY_DELAY"), 30*time.Second),
	}

	cfg.Bootstrap = BootstrapConfig{
		Username: v.GetString("ADMIN_USERNAME"),
		Email:    v.GetString("ADMIN_EMAIL"),
		Password: v.GetString("ADMIN_PASSWORD"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "civic_issues")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_COOKIE_NAME", "civic_session")
	v.SetDefault("SESSION_COOKIE_SECURE", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SMTP_SERVER", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SENDER_EMAIL", "civic.system@example.com")
	v.SetDefault("SENDER_PASSWORD", "")
	v.SetDefault("ADMIN_PANEL_URL", "http://localhost:5000")

	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 16*1024*1024)
	v.SetDefault("PHOTO_URL_SECRET", "dev_photo_secret")
	v.SetDefault("PHOTO_URL_TTL", "1h")

	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("SUBMIT_RATE_LIMIT", 0)

	v.SetDefault("NOTIFICATION_RETRY_ENABLED", false)
	v.SetDefault("NOTIFICATION_RETRY_WORKERS", 1)
	v.SetDefault("NOTIFICATION_RETRY_MAX", 3)
	v.SetDefault("NOTIFICATION_RETRY_DELAY", "30s")

	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_EMAIL", "admin@civic.local")
	v.SetDefault("ADMIN_PASSWORD", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
