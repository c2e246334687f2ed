package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables. The two provider keys match the names the upstream
// services document; everything else is namespaced under FINCHAT_.
const (
	envLLMAPIKey    = "TOGETHER_API_KEY"
	envMarketAPIKey = "ALPHAVANTAGE_API_KEY"

	envLLMBaseURL    = "FINCHAT_LLM_BASE_URL"
	envLLMModel      = "FINCHAT_LLM_MODEL"
	envMarketBaseURL = "FINCHAT_MARKET_BASE_URL"
	envProfilePath   = "FINCHAT_PROFILE_PATH"
	envSessionIdle   = "FINCHAT_SESSION_MAX_IDLE"
	envHost          = "FINCHAT_HOST"
	envPort          = "FINCHAT_PORT"
)

// Config carries everything the server needs from the environment. Flags may
// override Host, Port, ProfilePath and WebDir after Load.
type Config struct {
	Host        string
	Port        int
	ProfilePath string
	WebDir      string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	MarketAPIKey  string
	MarketBaseURL string

	SessionMaxIdle time.Duration
}

// Load reads configuration from a .env file (if present) and the process
// environment. Provider keys are not validated here; a missing key surfaces
// as an authentication failure from the provider.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Host:           "127.0.0.1",
		Port:           8000,
		ProfilePath:    "data.json",
		SessionMaxIdle: 24 * time.Hour,
	}

	cfg.LLMAPIKey = strings.TrimSpace(os.Getenv(envLLMAPIKey))
	cfg.MarketAPIKey = strings.TrimSpace(os.Getenv(envMarketAPIKey))
	cfg.LLMBaseURL = strings.TrimSpace(os.Getenv(envLLMBaseURL))
	cfg.LLMModel = strings.TrimSpace(os.Getenv(envLLMModel))
	cfg.MarketBaseURL = strings.TrimSpace(os.Getenv(envMarketBaseURL))

	if val := strings.TrimSpace(os.Getenv(envProfilePath)); val != "" {
		cfg.ProfilePath = val
	}
	if val := strings.TrimSpace(os.Getenv(envHost)); val != "" {
		cfg.Host = val
	}
	if val := strings.TrimSpace(os.Getenv(envPort)); val != "" {
		if port, err := strconv.Atoi(val); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if val := strings.TrimSpace(os.Getenv(envSessionIdle)); val != "" {
		if idle, err := time.ParseDuration(val); err == nil && idle > 0 {
			cfg.SessionMaxIdle = idle
		}
	}
	return cfg
}
