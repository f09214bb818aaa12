package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Conn is one acquired store connection.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Release()
}

// ConnPool hands out connections.
type ConnPool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// PgxPool adapts *pgxpool.Pool to ConnPool.
type PgxPool struct {
	Pool *pgxpool.Pool
}

func (p PgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// TodoRepository opens per-request sessions against the todo table.
type TodoRepository struct {
	pool ConnPool
	log  *zerolog.Logger
}

func NewTodoRepository(pool ConnPool, log *zerolog.Logger) *TodoRepository {
	return &TodoRepository{pool: pool, log: log}
}

// Open acquires the one connection a request may use. The caller must
// Close the session on every path.
func (r *TodoRepository) Open(ctx context.Context) (*Session, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire store connection: %w", err)
	}
	return &Session{conn: conn, log: r.log}, nil
}

// Session is a request-scoped connection. Close releases it exactly once,
// however many times it is called.
type Session struct {
	conn Conn
	log  *zerolog.Logger
	once sync.Once
}

// Exec runs stmt and collects every returned row.
func (s *Session) Exec(ctx context.Context, stmt Statement) ([]Row, error) {
	start := time.Now()

	rows, err := s.conn.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}

	result, err := CollectRows(rows)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("op", stmt.Op).
		Int("rows", len(result)).
		Dur("duration", time.Since(start)).
		Msg("statement executed")

	return result, nil
}

func (s *Session) Close() {
	s.once.Do(s.conn.Release)
}
