package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pixeldrift/imagehandler/internal/analysis"
	"github.com/pixeldrift/imagehandler/internal/config"
	"github.com/pixeldrift/imagehandler/internal/edits"
	"github.com/pixeldrift/imagehandler/internal/logging"
	"github.com/pixeldrift/imagehandler/internal/server"
	"github.com/pixeldrift/imagehandler/internal/storage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("imagehandlerd %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("imagehandlerd - HTTP service applying ordered edits to images")
			fmt.Println()
			fmt.Println("Usage: imagehandlerd [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  APP_ENV                 development|production (default development)")
			fmt.Println("  PORT                    Listen port (default 8080)")
			fmt.Println("  OLLAMA_URL              Vision model endpoint for smartCrop/contentModeration")
			fmt.Println("  OLLAMA_MODEL            Vision model name (default llava)")
			fmt.Println("  OSS_ENDPOINT            Object storage endpoint for overlay assets")
			fmt.Println("  OSS_ACCESS_KEY_ID       Object storage credential")
			fmt.Println("  OSS_ACCESS_KEY_SECRET   Object storage credential")
			return
		}
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.AppEnv)

	var store storage.Store
	if cfg.HasOSS() {
		ossStore, err := storage.NewOSSStore(cfg.OSSEndpoint, cfg.OSSKeyID, cfg.OSSKeySecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("connecting to object storage")
		}
		store = ossStore
		logger.Info().Str("endpoint", cfg.OSSEndpoint).Msg("object storage configured")
	} else {
		store = storage.NewMemStore()
		logger.Warn().Msg("no object storage configured, overlay assets unavailable")
	}

	detector, err := analysis.NewOllamaDetector(cfg.OllamaURL, cfg.OllamaModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("configuring vision detector")
	}

	processor := edits.NewProcessor(store, detector, detector)
	srv := server.New(cfg, logger, processor)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("version", Version).Msg("listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
