package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/livebid/go/clients/storefront"
	"github.com/mcdev12/livebid/go/internal/auction/config"
	"github.com/mcdev12/livebid/go/internal/auction/metrics"
	"github.com/mcdev12/livebid/go/internal/auction/session"
	"github.com/mcdev12/livebid/go/internal/auction/statusapi"
)

func main() {
	configPath := flag.String("config", os.Getenv("LIVEBID_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics := metrics.NewPrometheusMetrics(reg)

	creds := cfg.Credentials()
	sf := storefront.NewClient(cfg.Storefront.BaseURL, creds.Token, cfg.Storefront.Timeout)

	sess, err := session.New(creds, cfg.Dialer(), sf, cfg.SessionConfig(), session.WithMetrics(promMetrics))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create auction session")
	}

	log.Info().
		Str("user_id", creds.UserID).
		Str("transport", cfg.Transport).
		Str("storefront", cfg.Storefront.BaseURL).
		Str("status_addr", cfg.StatusAPI.Addr).
		Msg("starting livebid")

	health := statusapi.NewSessionHealthChecker(sess, clockwork.NewRealClock(), cfg.StatusAPI.StaleThreshold)
	server := statusapi.NewServer(cfg.StatusAPI.Addr, statusapi.NewHandler(sess, health, reg))

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("auction session failed")
		}
		cancel()
	}()

	// Start HTTP server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("status API starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("status API failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("status API shutdown failed")
	}

	sess.Close()
	select {
	case <-sessionDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("timed out waiting for session to stop")
	}

	log.Info().Msg("livebid shutdown complete")
}
