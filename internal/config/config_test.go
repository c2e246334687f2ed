package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envLLMAPIKey, envMarketAPIKey, envLLMBaseURL, envLLMModel,
		envMarketBaseURL, envProfilePath, envSessionIdle, envHost, envPort,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	if cfg.Host != "127.0.0.1" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.Port != 8000 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.ProfilePath != "data.json" {
		t.Errorf("profile path = %q", cfg.ProfilePath)
	}
	if cfg.SessionMaxIdle != 24*time.Hour {
		t.Errorf("session max idle = %v", cfg.SessionMaxIdle)
	}
	if cfg.LLMAPIKey != "" || cfg.MarketAPIKey != "" {
		t.Errorf("expected empty provider keys, got %q / %q", cfg.LLMAPIKey, cfg.MarketAPIKey)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envLLMAPIKey, " together-key ")
	t.Setenv(envMarketAPIKey, "av-key")
	t.Setenv(envLLMBaseURL, "https://llm.example.com/v1")
	t.Setenv(envLLMModel, "gemini-2.0-flash")
	t.Setenv(envMarketBaseURL, "https://market.example.com")
	t.Setenv(envProfilePath, "/etc/finchat/data.json")
	t.Setenv(envHost, "0.0.0.0")
	t.Setenv(envPort, "9090")
	t.Setenv(envSessionIdle, "2h")

	cfg := Load()
	if cfg.LLMAPIKey != "together-key" {
		t.Errorf("llm key = %q", cfg.LLMAPIKey)
	}
	if cfg.MarketAPIKey != "av-key" {
		t.Errorf("market key = %q", cfg.MarketAPIKey)
	}
	if cfg.LLMBaseURL != "https://llm.example.com/v1" {
		t.Errorf("llm base url = %q", cfg.LLMBaseURL)
	}
	if cfg.LLMModel != "gemini-2.0-flash" {
		t.Errorf("llm model = %q", cfg.LLMModel)
	}
	if cfg.MarketBaseURL != "https://market.example.com" {
		t.Errorf("market base url = %q", cfg.MarketBaseURL)
	}
	if cfg.ProfilePath != "/etc/finchat/data.json" {
		t.Errorf("profile path = %q", cfg.ProfilePath)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.SessionMaxIdle != 2*time.Hour {
		t.Errorf("session max idle = %v", cfg.SessionMaxIdle)
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(envPort, "not-a-port")
	t.Setenv(envSessionIdle, "eleventy minutes")

	cfg := Load()
	if cfg.Port != 8000 {
		t.Errorf("port = %d, want default", cfg.Port)
	}
	if cfg.SessionMaxIdle != 24*time.Hour {
		t.Errorf("session max idle = %v, want default", cfg.SessionMaxIdle)
	}

	t.Setenv(envPort, "-1")
	t.Setenv(envSessionIdle, "-5m")
	cfg = Load()
	if cfg.Port != 8000 {
		t.Errorf("negative port accepted: %d", cfg.Port)
	}
	if cfg.SessionMaxIdle != 24*time.Hour {
		t.Errorf("negative idle accepted: %v", cfg.SessionMaxIdle)
	}
}
