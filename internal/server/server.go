// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool (and migrations)
//   - redis client
//   - Azure AD credential factory and Graph client
//   - background job worker server (asynq) and detached tasks
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/tab-sso-backend/internal/config"
	"github.com/deppfellow/tab-sso-backend/internal/database"
	"github.com/deppfellow/tab-sso-backend/internal/lib/graph"
	"github.com/deppfellow/tab-sso-backend/internal/lib/identity"
	"github.com/deppfellow/tab-sso-backend/internal/lib/job"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/tab-sso-backend/internal/logger"
)

// RedisPingTimeout bounds the startup Redis check.
const RedisPingTimeout = 5 * time.Second

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself; the *http.Server lives in httpServer
// and is configured by SetupHTTPServer.
type Server struct {
	Config *config.Config

	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	LoggerService *loggerPkg.LoggerService

	DB *database.Database

	Redis *redis.Client

	// Identity builds on-behalf-of and application credentials.
	Identity *identity.Factory

	// Graph talks to Microsoft Graph with whichever credential it is given.
	Graph *graph.Client

	// Job runs background workers (Asynq server) and provides a client for enqueueing.
	Job *job.JobService

	// Detacher runs request-started work that must not delay the response.
	Detacher *job.Detacher

	httpServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// Identity misconfiguration, an unreachable database, a failed migration
// and a job server that cannot start all fail startup. Redis is only
// pinged: asynq reconnects on its own.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	identityFactory, err := identity.NewFactory(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize identity: %w", err)
	}

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), database.DatabasePingTimeout)
		err := database.Migrate(ctx, logger, cfg)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Instrument Redis commands when New Relic is enabled.
	if loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), RedisPingTimeout)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, notifications will queue once it is reachable")
	}

	graphClient := graph.NewClient(identityFactory.Scopes())

	jobService := job.NewJobService(logger, cfg)
	jobService.InitHandlers(identityFactory, graphClient)

	if err := jobService.Start(); err != nil {
		db.Pool.Close()
		return nil, fmt.Errorf("failed to start job server: %w", err)
	}

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Identity:      identityFactory,
		Graph:         graphClient,
		Job:           jobService,
		Detacher:      job.NewDetacher(logger, cfg.Notification.Timeout),
	}, nil
}

// SetupHTTPServer configures the internal net/http server.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: handler,

		// Config stores whole seconds.
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start runs the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, lets detached tasks finish their
// enqueue, then stops the job server and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	if s.Detacher != nil {
		if err := s.Detacher.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	return errors.Join(errs...)
}
