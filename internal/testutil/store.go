// Package testutil provides in-memory fakes of the service's collaborators.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/deppfellow/tab-sso-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrBoom is a generic injected failure.
var ErrBoom = errors.New("boom")

// Query is one statement a FakeConn received.
type Query struct {
	SQL  string
	Args []any
}

// FakePool hands out a single FakeConn.
type FakePool struct {
	Conn       *FakeConn
	AcquireErr error

	mu       sync.Mutex
	acquired int
}

func NewFakePool() *FakePool {
	return &FakePool{Conn: &FakeConn{}}
}

// Acquire implements repository.ConnPool.
func (p *FakePool) Acquire(ctx context.Context) (repository.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}
	p.acquired++
	return p.Conn, nil
}

// Acquired counts successful Acquire calls.
func (p *FakePool) Acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

// FakeConn records queries and answers them with Result or QueryErr.
type FakeConn struct {
	Result   *FakeRows
	QueryErr error

	mu       sync.Mutex
	queries  []Query
	released int
}

// Query implements repository.Conn.
func (c *FakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, Query{SQL: sql, Args: args})
	if c.QueryErr != nil {
		return nil, c.QueryErr
	}
	if c.Result == nil {
		return NewFakeRows(nil), nil
	}
	return c.Result, nil
}

// Release implements repository.Conn.
func (c *FakeConn) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released++
}

func (c *FakeConn) Queries() []Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Query(nil), c.queries...)
}

func (c *FakeConn) Released() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// FakeRows is a pgx.Rows over fixed values.
type FakeRows struct {
	columns []string
	values  [][]any
	pos     int
	closed  bool

	// ErrAfter is reported by Err once iteration ends.
	ErrAfter error
}

// NewFakeRows returns rows with the given column order and values.
func NewFakeRows(columns []string, values ...[]any) *FakeRows {
	return &FakeRows{columns: columns, values: values}
}

func (r *FakeRows) Close()                        { r.closed = true }
func (r *FakeRows) Closed() bool                  { return r.closed }
func (r *FakeRows) Err() error                    { return r.ErrAfter }
func (r *FakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *FakeRows) Conn() *pgx.Conn               { return nil }
func (r *FakeRows) RawValues() [][]byte           { return nil }

func (r *FakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return fields
}

func (r *FakeRows) Next() bool {
	if r.closed || r.pos >= len(r.values) {
		r.closed = true
		return false
	}
	r.pos++
	return true
}

func (r *FakeRows) Values() ([]any, error) {
	if r.pos == 0 || r.pos > len(r.values) {
		return nil, errors.New("no current row")
	}
	return r.values[r.pos-1], nil
}

func (r *FakeRows) Scan(dest ...any) error {
	return errors.New("scan is not supported by FakeRows")
}
