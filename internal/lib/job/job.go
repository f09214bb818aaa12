// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - You enqueue tasks (producer) using asynq.Client.
//   - A server runs workers that process those tasks (consumer) using asynq.Server.
//
// Activity notifications are delivered from here so that the HTTP response
// of the notification route never waits on Microsoft Graph.
package job

import (
	"context"
	"fmt"

	"github.com/deppfellow/tab-sso-backend/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	// server runs worker processes that pull tasks from Redis and execute handlers.
	server *asynq.Server

	cfg    *config.NotificationConfig
	logger *zerolog.Logger

	notifier *ActivityNotifier
}

// NewJobService creates a JobService configured to use Redis from cfg.
//
// Notifications get the whole worker pool; Asynq's own retry is disabled
// per task, so a failure is logged once and dropped.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     cfg.Notification.Concurrency,
			Queues:          map[string]int{cfg.Notification.Queue: 1},
			ShutdownTimeout: cfg.Notification.ShutdownGrace,
			Logger:          newAsynqLogger(logger),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error().
					Err(err).
					Str("task_type", task.Type()).
					Msg("background task failed")
			}),
		},
	)

	return &JobService{
		Client: client,
		server: server,
		cfg:    &cfg.Notification,
		logger: logger,
	}
}

// InitHandlers wires the dependencies the task handlers use. It must be
// called before Start.
func (j *JobService) InitHandlers(creds AppCredentials, sender ActivitySender) {
	j.notifier = NewActivityNotifier(j.cfg, creds, sender, j.logger)
}

// EnqueueActivityNotification schedules an activity notification for userID.
func (j *JobService) EnqueueActivityNotification(ctx context.Context, userID string) error {
	task, err := NewActivityNotificationTask(userID, j.cfg)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskActivityNotification, err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("user_id", userID).
		Msg("activity notification enqueued")
	return nil
}

// Start registers the task handlers and starts the worker server. Start
// returns once the workers are running.
func (j *JobService) Start() error {
	if j.notifier == nil {
		return fmt.Errorf("job handlers not initialized")
	}

	mux := asynq.NewServeMux()
	mux.Handle(TaskActivityNotification, j.notifier)

	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	return nil
}

// Stop gracefully stops the job server and closes client resources.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Warn().Err(err).Msg("failed to close job client")
	}
}
