package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	devAccessTokenSecret  = "dev-access-secret-change-me-please-0123456789"
	devRefreshTokenSecret = "dev-refresh-secret-change-me-please-9876543210"
)

// Config holds application configuration. It is built once at startup and
// passed to every constructor that needs it.
type Config struct {
	DatabaseURL            string
	DatabaseMaxConns       int32
	DatabaseConnectTimeout time.Duration
	MigrationsPath         string
	Port                   string
	IsProduction           bool

	// Token signing. Access and refresh tokens use distinct secrets.
	AccessTokenSecret          string
	AccessTokenExpiryDuration  time.Duration
	RefreshTokenSecret         string
	RefreshTokenExpiryDuration time.Duration
	JWTIssuer                  string
	RevokeLineageOnReuse       bool

	// Cookies
	RefreshTokenCookieName string
	RefreshTokenCookiePath string
	CookieSecure           bool
	CSRFCookieName         string
	CSRFHeaderName         string
	CSRFCookieMaxAge       time.Duration

	// MFA
	MFAIssuer       string
	TOTPSkewSteps   int
	BackupCodeCount int

	// Password hashing (argon2id)
	Argon2MemoryKB          uint32
	Argon2Time              uint32
	Argon2Parallelism       uint8
	PasswordHashConcurrency int64

	// Login/register rate limiting
	LoginRateLimit  int64
	LoginRateWindow time.Duration
	RedisURL        string

	// External OAuth Providers
	GoogleClientID       string
	GoogleClientSecret   string
	GitHubClientID       string
	GitHubClientSecret   string
	OAuthRedirectBaseURL string
	FrontendBaseURL      string

	PosthogAPIKey   string
	PosthogEndpoint string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PGSQL_MAX_CONNS", 10)
	v.SetDefault("PGSQL_CONNECT_TIMEOUT", "5s")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ACCESS_TOKEN_SECRET", devAccessTokenSecret)
	v.SetDefault("ACCESS_TOKEN_EXPIRY_DURATION", "15m")
	v.SetDefault("REFRESH_TOKEN_SECRET", devRefreshTokenSecret)
	v.SetDefault("REFRESH_TOKEN_EXPIRY_DURATION", "168h")
	v.SetDefault("JWT_ISSUER", "identity-service")
	v.SetDefault("REVOKE_LINEAGE_ON_REUSE", false)
	v.SetDefault("REFRESH_TOKEN_COOKIE_NAME", "refresh_token")
	v.SetDefault("REFRESH_TOKEN_COOKIE_PATH", "/auth")
	v.SetDefault("CSRF_COOKIE_NAME", "csrf")
	v.SetDefault("CSRF_HEADER_NAME", "X-CSRF-Token")
	v.SetDefault("CSRF_COOKIE_MAX_AGE", "24h")
	v.SetDefault("MFA_ISSUER", "Identity Service")
	v.SetDefault("TOTP_SKEW_STEPS", 2)
	v.SetDefault("BACKUP_CODE_COUNT", 8)
	v.SetDefault("ARGON2_MEMORY_KB", 64*1024)
	v.SetDefault("ARGON2_TIME", 3)
	v.SetDefault("ARGON2_PARALLELISM", 2)
	v.SetDefault("PASSWORD_HASH_CONCURRENCY", 8)
	v.SetDefault("LOGIN_RATE_LIMIT", 20)
	v.SetDefault("LOGIN_RATE_WINDOW", "10m")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:            v.GetString("PGSQL_URL"),
		DatabaseMaxConns:       v.GetInt32("PGSQL_MAX_CONNS"),
		DatabaseConnectTimeout: durationOrDefault(v, "PGSQL_CONNECT_TIMEOUT", 5*time.Second),
		MigrationsPath:         v.GetString("MIGRATIONS_PATH"),
		Port:                   v.GetString("PORT"),
		IsProduction:           v.GetBool("IS_PRODUCTION"),

		AccessTokenSecret:          v.GetString("ACCESS_TOKEN_SECRET"),
		AccessTokenExpiryDuration:  durationOrDefault(v, "ACCESS_TOKEN_EXPIRY_DURATION", 15*time.Minute),
		RefreshTokenSecret:         v.GetString("REFRESH_TOKEN_SECRET"),
		RefreshTokenExpiryDuration: durationOrDefault(v, "REFRESH_TOKEN_EXPIRY_DURATION", 7*24*time.Hour),
		JWTIssuer:                  v.GetString("JWT_ISSUER"),
		RevokeLineageOnReuse:       v.GetBool("REVOKE_LINEAGE_ON_REUSE"),

		RefreshTokenCookieName: v.GetString("REFRESH_TOKEN_COOKIE_NAME"),
		RefreshTokenCookiePath: v.GetString("REFRESH_TOKEN_COOKIE_PATH"),
		CSRFCookieName:         v.GetString("CSRF_COOKIE_NAME"),
		CSRFHeaderName:         v.GetString("CSRF_HEADER_NAME"),
		CSRFCookieMaxAge:       durationOrDefault(v, "CSRF_COOKIE_MAX_AGE", 24*time.Hour),

		MFAIssuer:       v.GetString("MFA_ISSUER"),
		TOTPSkewSteps:   v.GetInt("TOTP_SKEW_STEPS"),
		BackupCodeCount: v.GetInt("BACKUP_CODE_COUNT"),

		Argon2MemoryKB:          v.GetUint32("ARGON2_MEMORY_KB"),
		Argon2Time:              v.GetUint32("ARGON2_TIME"),
		Argon2Parallelism:       v.GetUint8("ARGON2_PARALLELISM"),
		PasswordHashConcurrency: v.GetInt64("PASSWORD_HASH_CONCURRENCY"),

		LoginRateLimit:  v.GetInt64("LOGIN_RATE_LIMIT"),
		LoginRateWindow: durationOrDefault(v, "LOGIN_RATE_WINDOW", 10*time.Minute),
		RedisURL:        v.GetString("REDIS_URL"),

		GoogleClientID:       v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   v.GetString("GOOGLE_CLIENT_SECRET"),
		GitHubClientID:       v.GetString("GITHUB_CLIENT_ID"),
		GitHubClientSecret:   v.GetString("GITHUB_CLIENT_SECRET"),
		OAuthRedirectBaseURL: v.GetString("OAUTH_REDIRECT_BASE_URL"),
		FrontendBaseURL:      v.GetString("FRONTEND_BASE_URL"),

		PosthogAPIKey:   v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint: v.GetString("POSTHOG_ENDPOINT"),
	}

	// Secure cookies follow the environment unless set explicitly.
	cfg.CookieSecure = cfg.IsProduction
	if v.IsSet("COOKIE_SECURE") {
		cfg.CookieSecure = v.GetBool("COOKIE_SECURE")
	}

	if cfg.DatabaseURL == "" {
		slog.Warn("PGSQL_URL environment variable not set, using in-memory credential store.")
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		slog.Warn("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set. Google OAuth will not function.")
	}
	if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
		slog.Warn("GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set. GitHub OAuth will not function.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the service relies on.
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.IsProduction && (c.AccessTokenSecret == devAccessTokenSecret || c.RefreshTokenSecret == devRefreshTokenSecret) {
		return errors.New("development token secrets cannot be used in production")
	}
	if c.TOTPSkewSteps < 0 {
		return fmt.Errorf("TOTP_SKEW_STEPS must be >= 0, got %d", c.TOTPSkewSteps)
	}
	if c.PasswordHashConcurrency <= 0 {
		return fmt.Errorf("PASSWORD_HASH_CONCURRENCY must be > 0, got %d", c.PasswordHashConcurrency)
	}
	if c.LoginRateLimit <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be > 0, got %d", c.LoginRateLimit)
	}
	return nil
}

func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("Invalid duration, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.String("default", def.String()))
		return def
	}
	return d
}
