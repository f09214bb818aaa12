package handler

import (
	"github.com/deppfellow/tab-sso-backend/internal/middleware"
	"github.com/deppfellow/tab-sso-backend/internal/model"
	"github.com/deppfellow/tab-sso-backend/internal/server"
	"github.com/deppfellow/tab-sso-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// NotificationHandler serves /api/notification.
type NotificationHandler struct {
	Handler
	notificationService *service.NotificationService
}

func NewNotificationHandler(s *server.Server, notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		Handler:             NewHandler(s),
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) Notify(c echo.Context, _ *model.NotificationRequest) (*service.NotificationResponse, error) {
	return h.notificationService.Notify(
		c.Request().Context(),
		middleware.GetAccessToken(c),
		c.Request().Header,
	)
}
