package handler

import (
	"github.com/deppfellow/tab-sso-backend/internal/middleware"
	"github.com/deppfellow/tab-sso-backend/internal/model"
	"github.com/deppfellow/tab-sso-backend/internal/repository"
	"github.com/deppfellow/tab-sso-backend/internal/server"
	"github.com/deppfellow/tab-sso-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// TodoHandler serves /api/todo for every method; the method selects the
// statement.
type TodoHandler struct {
	Handler
	todoService *service.TodoService
}

func NewTodoHandler(s *server.Server, todoService *service.TodoService) *TodoHandler {
	return &TodoHandler{
		Handler:     NewHandler(s),
		todoService: todoService,
	}
}

func (h *TodoHandler) HandleTodo(c echo.Context, req *model.TodoRequest) ([]repository.Row, error) {
	return h.todoService.Handle(
		c.Request().Context(),
		c.Request().Method,
		middleware.GetAccessToken(c),
		req,
	)
}
