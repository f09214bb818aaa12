package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/deppfellow/tab-sso-backend/internal/lib/utils"
)

// Enqueuer schedules an activity notification for a user.
type Enqueuer interface {
	EnqueueActivityNotification(ctx context.Context, userID string) error
}

// Detacher runs work that the response must not wait for.
type Detacher interface {
	Detach(ctx context.Context, name string, fn func(context.Context) error)
}

// NotificationResponse echoes the request headers back to the tab.
type NotificationResponse struct {
	Headers map[string]string `json:"headers"`
}

type NotificationService struct {
	creds    Credentials
	dir      Directory
	queue    Enqueuer
	detacher Detacher
}

func NewNotificationService(creds Credentials, dir Directory, queue Enqueuer, detacher Detacher) *NotificationService {
	return &NotificationService{creds: creds, dir: dir, queue: queue, detacher: detacher}
}

// Notify answers as soon as the delegated credential exists. Reading the
// caller's profile and queuing the activity happen detached, and their
// failures only reach the logs.
func (s *NotificationService) Notify(ctx context.Context, token string, headers http.Header) (*NotificationResponse, error) {
	if token == "" {
		return nil, errMissingAccessToken()
	}

	cred, err := s.creds.OnBehalfOf(token)
	if err != nil {
		return nil, credentialError(fmt.Errorf("failed to create on-behalf-of credential: %w", err))
	}

	s.detacher.Detach(ctx, "activity_notification", func(ctx context.Context) error {
		profile, err := s.dir.Me(ctx, cred)
		if err != nil {
			return fmt.Errorf("read caller profile: %w", err)
		}
		return s.queue.EnqueueActivityNotification(ctx, profile.ID)
	})

	return &NotificationResponse{Headers: utils.EchoHeaders(headers)}, nil
}
