package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carmarket-backend/bootstrap"
	"carmarket-backend/internal/config"
	"carmarket-backend/internal/interfaces/router"
	"carmarket-backend/internal/pkg/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logging.Setup(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	app := router.CreateApp(rt)

	go rt.Listings.RunExpirySweep(ctx, cfg.ExpirySweepInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msgf("Server running at http://localhost:%s", cfg.Port)
		log.Info().Msgf("Health check: http://localhost:%s/health/json", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	rt.Close()
	log.Info().Msg("bye")
}
