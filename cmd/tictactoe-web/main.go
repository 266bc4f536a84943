// Command tictactoe-web serves the game to browsers.
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
	"github.com/rs/zerolog/log"

	"github.com/jaminalder/tic-tac-toe-replay/internal/app"
	"github.com/jaminalder/tic-tac-toe-replay/internal/config"
	"github.com/jaminalder/tic-tac-toe-replay/internal/logging"
	"github.com/jaminalder/tic-tac-toe-replay/internal/web"
)

var flagConfig = flag.String("config", "", "path to config.yml (default: XDG config dir)")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	conf, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(conf.LogLevel, conf.LogFormat, os.Stdout)

	svc := app.NewService(logger)
	srv := &http.Server{
		Addr: conf.HTTP.Addr,
		Handler: web.NewServer(svc, logger, web.Options{
			RequestTimeout: conf.HTTP.RequestTimeout,
			Heartbeat:      conf.Events.Heartbeat,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", conf.HTTP.Addr).Msg("starting tictactoe-web")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}
}
