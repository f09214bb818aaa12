package service

import (
	"github.com/deppfellow/tab-sso-backend/internal/lib/job"
	"github.com/deppfellow/tab-sso-backend/internal/repository"
	"github.com/deppfellow/tab-sso-backend/internal/server"
)

type Services struct {
	Todo         *TodoService
	Notification *NotificationService
	Job          *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Todo:         NewTodoService(repos.Todo, s.Identity, s.Graph),
		Notification: NewNotificationService(s.Identity, s.Graph, s.Job, s.Detacher),
		Job:          s.Job,
	}, nil
}
