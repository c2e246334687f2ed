package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"finchat/internal/api"
	"finchat/internal/config"
	"finchat/internal/logging"
	"finchat/pkg/finchat"
)

func main() {
	cfg := config.Load()

	var profilePath string
	var port int
	var host string
	var webDir string
	var logDir string

	flag.StringVar(&profilePath, "profile", cfg.ProfilePath, "Path to the user profile JSON file")
	flag.IntVar(&port, "port", cfg.Port, "Port to run the server on")
	flag.StringVar(&host, "host", cfg.Host, "Host to bind the server to")
	flag.StringVar(&webDir, "web-dir", "", "Directory for chat UI static files (optional)")
	flag.StringVar(&logDir, "log-dir", "logs", "Directory for log files")
	flag.Parse()

	logger, writer, err := logging.NewLogger(logDir)
	if err != nil {
		slog.Error("failed to initialize logger", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close log writer", "err", err)
		}
	}()

	// A missing or malformed profile is fatal; it is the source of truth for
	// every canned-answer handler.
	profile, err := finchat.LoadProfile(profilePath)
	if err != nil {
		logger.Error("failed to load profile", "path", profilePath, "err", err)
		os.Exit(1)
	}

	if cfg.LLMAPIKey == "" {
		logger.Warn("TOGETHER_API_KEY is not set; language model requests will fail authentication")
	}
	if cfg.MarketAPIKey == "" {
		logger.Warn("ALPHAVANTAGE_API_KEY is not set; market data requests will fail authentication")
	}

	core, err := finchat.NewCore(finchat.Options{
		Profile:        profile,
		Logger:         logger,
		MarketAPIKey:   cfg.MarketAPIKey,
		MarketBaseURL:  cfg.MarketBaseURL,
		LLMAPIKey:      cfg.LLMAPIKey,
		LLMBaseURL:     cfg.LLMBaseURL,
		LLMModel:       cfg.LLMModel,
		SessionMaxIdle: cfg.SessionMaxIdle,
	})
	if err != nil {
		logger.Error("failed to initialize core", "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	handler := api.NewRouter(core)
	if resolvedWebDir := resolveWebDir(webDir); resolvedWebDir != "" {
		logger.Info("serving chat UI", "web_dir", resolvedWebDir)
		handler = api.WithSPA(handler, resolvedWebDir)
	}
	handler = middleware.Compress(5)(handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", addr, "profile", profilePath)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
}

func resolveWebDir(input string) string {
	if input != "" {
		if dirExists(input) {
			return input
		}
		return ""
	}

	candidates := []string{"web", "../web"}
	for _, candidate := range candidates {
		if dirExists(candidate) {
			return candidate
		}
	}
	if exe, err := os.Executable(); err == nil {
		base := filepath.Dir(exe)
		for _, candidate := range candidates {
			path := filepath.Join(base, candidate)
			if dirExists(path) {
				return path
			}
		}
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
