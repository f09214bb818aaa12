package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/deppfellow/tab-sso-backend/internal/config"
	"github.com/deppfellow/tab-sso-backend/internal/lib/graph"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

const (
	// TaskActivityNotification is the job type name stored in Redis.
	TaskActivityNotification = "notification:activity"
)

// ActivityNotificationPayload is the JSON payload of an activity
// notification task.
type ActivityNotificationPayload struct {
	UserID string `json:"user_id"`
}

// AppCredentials yields the service's own Graph credential.
type AppCredentials interface {
	Application() (azcore.TokenCredential, error)
}

// ActivitySender is the part of the Graph client the notifier uses.
type ActivitySender interface {
	InstallationID(ctx context.Context, cred azcore.TokenCredential, userID, appID string) (string, error)
	SendActivityNotification(ctx context.Context, cred azcore.TokenCredential, userID string, a graph.Activity) error
}

// NewActivityNotificationTask builds the task for userID. Delivery is
// attempted once: MaxRetry(0).
func NewActivityNotificationTask(userID string, cfg *config.NotificationConfig) (*asynq.Task, error) {
	if userID == "" {
		return nil, errors.New("activity notification: empty user id")
	}

	payload, err := json.Marshal(ActivityNotificationPayload{UserID: userID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskActivityNotification,
		payload,
		asynq.MaxRetry(0),
		asynq.Queue(cfg.Queue),
		asynq.Timeout(cfg.Timeout),
	), nil
}

// ActivityNotifier delivers activity notification tasks: application
// credential, installation lookup, then sendActivityNotification.
type ActivityNotifier struct {
	cfg    *config.NotificationConfig
	creds  AppCredentials
	sender ActivitySender
	logger *zerolog.Logger
}

func NewActivityNotifier(cfg *config.NotificationConfig, creds AppCredentials, sender ActivitySender, logger *zerolog.Logger) *ActivityNotifier {
	return &ActivityNotifier{cfg: cfg, creds: creds, sender: sender, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (n *ActivityNotifier) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ActivityNotificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal activity notification payload: %w: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	log := n.logger.With().
		Str("type", "activity_notification").
		Str("user_id", p.UserID).
		Logger()

	log.Info().Msg("Processing activity notification task")

	if err := n.Deliver(ctx, p.UserID); err != nil {
		log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Failed to send activity notification")
		return err
	}

	log.Info().
		Dur("duration", time.Since(start)).
		Msg("Successfully sent activity notification")
	return nil
}

// Deliver sends the configured activity to userID.
func (n *ActivityNotifier) Deliver(ctx context.Context, userID string) error {
	cred, err := n.creds.Application()
	if err != nil {
		return err
	}

	installationID, err := n.sender.InstallationID(ctx, cred, userID, n.cfg.TeamsAppID)
	if err != nil {
		return err
	}

	return n.sender.SendActivityNotification(ctx, cred, userID, graph.Activity{
		TopicURL:     graph.InstalledAppURL(userID, installationID),
		ActivityType: n.cfg.ActivityType,
		PreviewText:  n.cfg.PreviewText,
		TemplateParameters: map[string]string{
			"taskName": n.cfg.TaskName,
		},
	})
}
