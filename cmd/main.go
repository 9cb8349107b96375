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

	"github.com/deepgram/taskboard/internal/api/v1/handlers"
	"github.com/deepgram/taskboard/internal/config"
	"github.com/deepgram/taskboard/internal/services"
	"github.com/deepgram/taskboard/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	logCfg, err := config.GetLogConfig()
	if err != nil {
		return err
	}
	logger.Configure(logCfg.Level, logCfg.Pretty)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svcs, err := services.InitializeServices(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svcs.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close services")
		}
	}()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           setupRouter(cfg, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server.ListenAndServe: %w", err)
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func setupRouter(cfg *config.Config, svcs *services.Services) *mux.Router {
	r := mux.NewRouter()
	handlers.RegisterRoutes(r, cfg, svcs)
	return r
}
