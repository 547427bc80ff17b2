package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Credential backends
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendMemory  = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// API Configuration
	API APIConfig

	// Credentials Configuration
	Credentials CredentialsConfig

	// Dashboard gateway Configuration
	Gateway GatewayConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds backend REST API configuration
type APIConfig struct {
	URL     string
	Timeout time.Duration
}

// CredentialsConfig selects where token and apiKey are persisted
type CredentialsConfig struct {
	Backend string // keyring, file, memory
}

// GatewayConfig holds dashboard gateway configuration
type GatewayConfig struct {
	ListenAddr     string
	AllowedOrigins []string
	SecureCookies  bool
	// TokenSecret enables signature checks on session cookies. Optional.
	TokenSecret    string
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

	apiURL := getenv("LLMADMIN_API_URL", "http://localhost:8000")

	timeout := 30 * time.Second
	if raw := os.Getenv("LLMADMIN_REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LLMADMIN_REQUEST_TIMEOUT %q: %w", raw, err)
		}
		timeout = d
	}

	backend := strings.ToLower(getenv("LLMADMIN_CREDENTIAL_BACKEND", BackendKeyring))
	switch backend {
	case BackendKeyring, BackendFile, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid LLMADMIN_CREDENTIAL_BACKEND %q (valid: keyring, file, memory)", backend)
	}

	var origins []string
	for _, o := range strings.Split(getenv("LLMADMIN_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		API: APIConfig{
			URL:     strings.TrimRight(apiURL, "/"),
			Timeout: timeout,
		},
		Credentials: CredentialsConfig{
			Backend: backend,
		},
		Gateway: GatewayConfig{
			ListenAddr:     getenv("LLMADMIN_LISTEN_ADDR", ":3000"),
			AllowedOrigins: origins,
			SecureCookies:  os.Getenv("LLMADMIN_SECURE_COOKIES") == "true",
			TokenSecret:    os.Getenv("LLMADMIN_JWT_SECRET"),
		},
		Logging: LoggingConfig{
			// Logging configuration - defaults suitable for production
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
