// Command api runs the Teams tab SSO backend: the todo store and the
// activity feed notification endpoints, plus the notification worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/tab-sso-backend/internal/config"
	"github.com/deppfellow/tab-sso-backend/internal/handler"
	"github.com/deppfellow/tab-sso-backend/internal/logger"
	"github.com/deppfellow/tab-sso-backend/internal/repository"
	"github.com/deppfellow/tab-sso-backend/internal/router"
	"github.com/deppfellow/tab-sso-backend/internal/server"
	"github.com/deppfellow/tab-sso-backend/internal/service"
	"github.com/rs/zerolog"
)

// DefaultShutdownGrace applies when notification.shutdown_grace is unset.
const DefaultShutdownGrace = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewService(srv, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create services")
	}

	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()

	grace := cfg.Notification.ShutdownGrace
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
