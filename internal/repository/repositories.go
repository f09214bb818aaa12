// Package repository handles all interactions with the database.
//
// It contains the parameterized SQL statements of the todo route and the
// per-request session that acquires, uses and releases one connection.
package repository

import (
	"github.com/deppfellow/tab-sso-backend/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Todo *TodoRepository
}

// NewRepositories builds the repositories on top of the server's pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Todo: NewTodoRepository(PgxPool{Pool: s.DB.Pool}, s.Logger),
	}
}
