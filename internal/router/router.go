// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"net/http"

	"github.com/deppfellow/tab-sso-backend/internal/handler"
	"github.com/deppfellow/tab-sso-backend/internal/middleware"
	"github.com/deppfellow/tab-sso-backend/internal/model"
	"github.com/deppfellow/tab-sso-backend/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance with the global middleware chain,
// the system routes and the /api group.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Pre(middleware.NormalizeMethod())

	// Order matters: the request id and the New Relic transaction must
	// exist before the logger is enriched, and the token is parsed before
	// the logger picks up the caller's ids.
	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Auth.ExtractSSOToken,
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	api := router.Group("/api", middlewares.RateLimit.Limit())

	// Both routes accept every method; the handlers decide what is
	// supported. Any only covers the methods Echo knows, so the
	// RouteNotFound twins catch the rest instead of a 405.
	todo := handler.Handle(
		h.Todo.Handler,
		h.Todo.HandleTodo,
		http.StatusOK,
		model.NewTodoRequest,
	)
	api.Any("/todo", todo)
	api.RouteNotFound("/todo", todo)

	notification := handler.Handle(
		h.Notification.Handler,
		h.Notification.Notify,
		http.StatusOK,
		model.NewNotificationRequest,
	)
	api.Any("/notification", notification)
	api.RouteNotFound("/notification", notification)

	return router
}
