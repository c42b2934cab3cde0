package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBase = "http://localhost:8000/api"
	DefaultTimeout = 30 * time.Second
)

// RegisterMode selects what happens after a successful registration
type RegisterMode string

const (
	// RegisterManual acknowledges the registration and leaves the user to log in
	RegisterManual RegisterMode = "manual"
	// RegisterAuto logs in with the same credentials right after registering
	RegisterAuto RegisterMode = "auto"
)

// ParseRegisterMode maps a config string onto a RegisterMode. Empty means manual.
func ParseRegisterMode(s string) (RegisterMode, error) {
	switch RegisterMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", RegisterManual:
		return RegisterManual, nil
	case RegisterAuto:
		return RegisterAuto, nil
	default:
		return "", fmt.Errorf("invalid register mode %q, must be one of: manual, auto", s)
	}
}

// Config holds all configuration for the client and the dev backend
type Config struct {
	// Client Configuration
	Client ClientConfig

	// Dev backend Configuration
	DevAPI DevAPIConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ClientConfig holds the REST client configuration
type ClientConfig struct {
	APIBase      string
	Timeout      time.Duration
	RegisterMode RegisterMode
}

// DevAPIConfig holds configuration for the development backend
type DevAPIConfig struct {
	Addr          string
	DatabaseURL   string
	JWTSecret     string
	CORSOrigins   []string
	TokenTTL      time.Duration
	RefreshWindow time.Duration
	// LogLevel is the backend's level; the CLI level in Logging stays quieter
	LogLevel      string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	timeout, err := durationEnv("COURSEHUB_TIMEOUT", DefaultTimeout)
	if err != nil {
		return nil, err
	}

	mode, err := ParseRegisterMode(os.Getenv("COURSEHUB_REGISTER_MODE"))
	if err != nil {
		return nil, err
	}

	tokenTTL, err := durationEnv("DEVAPI_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	refreshWindow, err := durationEnv("DEVAPI_REFRESH_WINDOW", 2*time.Hour)
	if err != nil {
		return nil, err
	}

	var origins []string
	for _, o := range strings.Split(stringEnv("DEVAPI_CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		Client: ClientConfig{
			APIBase:      strings.TrimRight(stringEnv("COURSEHUB_API_BASE", DefaultAPIBase), "/"),
			Timeout:      timeout,
			RegisterMode: mode,
		},
		DevAPI: DevAPIConfig{
			Addr:          stringEnv("DEVAPI_ADDR", ":8000"),
			DatabaseURL:   stringEnv("DEVAPI_DATABASE_URL", "coursehub-dev.sqlite"),
			JWTSecret:     os.Getenv("DEVAPI_JWT_SECRET"),
			CORSOrigins:   origins,
			TokenTTL:      tokenTTL,
			RefreshWindow: refreshWindow,
			LogLevel:      stringEnv("DEVAPI_LOG_LEVEL", stringEnv("LOG_LEVEL", "info")),
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "warn"),
			Format: stringEnv("LOG_FORMAT", "console"),
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
