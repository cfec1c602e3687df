package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/localwhisper/whisper-stt/internal/api"
	"github.com/localwhisper/whisper-stt/internal/config"
	"github.com/localwhisper/whisper-stt/internal/metrics"
	"github.com/localwhisper/whisper-stt/internal/stt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file (default .env)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.StringVar(&overrides.APIURL, "api-url", "", "whisper ASR webservice base URL")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("whisper-stt starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One pooled client shared by the engine and the health probe
	httpClient := &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}

	// STT engine
	sttLog := log.With().Str("component", "stt").Logger()
	engine, err := stt.NewEngine(stt.PlatformConfig{APIURL: cfg.APIURL}, httpClient, sttLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create stt engine")
	}
	prometheus.MustRegister(metrics.NewCollector(engine))
	log.Info().Str("api_url", engine.BaseURL()).Str("provider", stt.ProviderID).Msg("stt engine ready")

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, engine, httpClient, version, startTime, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	httpClient.CloseIdleConnections()

	log.Info().Msg("whisper-stt stopped")
}
