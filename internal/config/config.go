// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the database, sessions, asset storage, the administrator
// bootstrap, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// DevSessionSecret is the default signing secret. It is rejected in release
// mode.
const DevSessionSecret = "dev-only-session-secret-change-me"

// CORSConfig defines Cross-Origin Resource Sharing settings for the JSON API.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// DBConfig selects and addresses the relational store.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres|mysql
	Path   string // DB_PATH: sqlite file
	URL    string // DATABASE_URL: postgres/mysql DSN
}

// DSN returns the connection string for the configured driver.
func (d DBConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return d.URL
}

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	Secret       string        // SESSION_SECRET
	TTL          time.Duration // SESSION_TTL
	CookieName   string        // SESSION_COOKIE
	CookieSecure bool          // COOKIE_SECURE
}

// StorageConfig configures where uploaded assets live.
type StorageConfig struct {
	Backend        string // STORAGE_BACKEND: local|supabase
	MediaRoot      string // MEDIA_ROOT
	MediaURL       string // MEDIA_URL
	SupabaseURL    string // SUPABASE_URL
	SupabaseKey    string // SUPABASE_SERVICE_KEY
	SupabaseBucket string // SUPABASE_STORAGE_BUCKET
	MaxUploadBytes int64  // MAX_UPLOAD_BYTES, per file
}

// AdminConfig bootstraps an administrator at startup when Username is set.
type AdminConfig struct {
	Username string // ADMIN_USERNAME
	Email    string // ADMIN_EMAIL
	Password string // ADMIN_PASSWORD
}

// Enabled reports whether an administrator should be bootstrapped.
func (a AdminConfig) Enabled() bool { return a.Username != "" }

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 30s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful shutdown budget
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for the JSON API

	// App
	DB        DBConfig
	Session   SessionConfig
	Storage   StorageConfig
	Admin     AdminConfig
	AboutPath string         // optional TOML override of the studio info
	TimeZone  string         // IANA name of the studio's zone
	Location  *time.Location // loaded from TimeZone

	// Rate limiting (login and signup)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "app.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		Session: SessionConfig{
			Secret:       getenv("SESSION_SECRET", DevSessionSecret),
			TTL:          getdur("SESSION_TTL", 14*24*time.Hour),
			CookieName:   getenv("SESSION_COOKIE", "session"),
			CookieSecure: getbool("COOKIE_SECURE", false),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getenv("STORAGE_BACKEND", "local")),
			MediaRoot:      getenv("MEDIA_ROOT", "media"),
			MediaURL:       getenv("MEDIA_URL", "/media/"),
			SupabaseURL:    getenv("SUPABASE_URL", ""),
			SupabaseKey:    getenv("SUPABASE_SERVICE_KEY", ""),
			SupabaseBucket: getenv("SUPABASE_STORAGE_BUCKET", "media"),
			MaxUploadBytes: getint64("MAX_UPLOAD_BYTES", 10<<20),
		},
		Admin: AdminConfig{
			Username: strings.TrimSpace(getenv("ADMIN_USERNAME", "")),
			Email:    strings.TrimSpace(getenv("ADMIN_EMAIL", "")),
			Password: getenv("ADMIN_PASSWORD", ""),
		},
		AboutPath: getenv("ABOUT_PATH", ""),
		TimeZone:  getenv("TIME_ZONE", "Asia/Manila"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 1.0),
		RateBurst: getint("RATE_BURST", 5),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-art-booking"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "sqlite3" {
		cfg.DB.Driver = "sqlite"
	}
	if !strings.HasSuffix(cfg.Storage.MediaURL, "/") {
		cfg.Storage.MediaURL += "/"
	}
	cfg.Storage.SupabaseURL = strings.TrimRight(cfg.Storage.SupabaseURL, "/")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}

	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres", "mysql":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for DB_DRIVER=%s", cfg.DB.Driver)
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres, mysql")
	}

	if len(cfg.Session.Secret) < 16 {
		return cfg, errors.New("SESSION_SECRET must be at least 16 bytes")
	}
	if cfg.GinMode == "release" && cfg.Session.Secret == DevSessionSecret {
		return cfg, errors.New("SESSION_SECRET must be set in release mode")
	}
	if cfg.Session.TTL <= 0 {
		return cfg, errors.New("SESSION_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		return cfg, errors.New("SESSION_COOKIE must not be empty")
	}

	switch cfg.Storage.Backend {
	case "local":
		if strings.TrimSpace(cfg.Storage.MediaRoot) == "" {
			return cfg, errors.New("MEDIA_ROOT must not be empty")
		}
	case "supabase":
		if cfg.Storage.SupabaseURL == "" || cfg.Storage.SupabaseKey == "" || cfg.Storage.SupabaseBucket == "" {
			return cfg, errors.New("SUPABASE_URL, SUPABASE_SERVICE_KEY and SUPABASE_STORAGE_BUCKET are required for STORAGE_BACKEND=supabase")
		}
	default:
		return cfg, errors.New("STORAGE_BACKEND must be one of: local, supabase")
	}
	if cfg.Storage.MaxUploadBytes <= 0 {
		return cfg, errors.New("MAX_UPLOAD_BYTES must be > 0")
	}

	if cfg.Admin.Enabled() && cfg.Admin.Password == "" {
		return cfg, errors.New("ADMIN_PASSWORD is required when ADMIN_USERNAME is set")
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return cfg, fmt.Errorf("TIME_ZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
