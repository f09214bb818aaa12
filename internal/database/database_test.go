package database

import (
	"bytes"
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracer struct {
	name  string
	calls *[]string
}

func (r recordingTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	*r.calls = append(*r.calls, r.name+":start")
	return ctx
}

func (r recordingTracer) TraceQueryEnd(_ context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	*r.calls = append(*r.calls, r.name+":end")
}

type endOnlyTracer struct {
	calls *[]string
}

func (e endOnlyTracer) TraceQueryEnd(_ context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	*e.calls = append(*e.calls, "end-only:end")
}

func TestMultiTracer(t *testing.T) {
	var calls []string
	mt := &multiTracer{tracers: []any{
		recordingTracer{name: "a", calls: &calls},
		endOnlyTracer{calls: &calls},
		recordingTracer{name: "b", calls: &calls},
	}}

	ctx := mt.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	mt.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	assert.Equal(t, []string{"a:start", "b:start", "a:end", "end-only:end", "b:end"}, calls)
}

func TestSlowQueryTracer(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		wantLog   bool
	}{
		{name: "below threshold", threshold: time.Hour},
		{name: "at threshold", threshold: time.Nanosecond, wantLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := zerolog.New(&buf)
			tracer := &slowQueryTracer{threshold: tt.threshold, log: &log}

			ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: `SELECT * FROM dbo."Todo"`})
			time.Sleep(time.Millisecond)
			tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 2")})

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), `"message":"slow query"`)
			assert.Contains(t, buf.String(), `"command_tag":"SELECT 2"`)
		})
	}
}

func TestSlowQueryTracer_NoStart(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	tracer := &slowQueryTracer{threshold: time.Nanosecond, log: &log}

	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	assert.Empty(t, buf.String())
}

func TestEmbeddedMigrations(t *testing.T) {
	subtree, err := fs.Sub(migrations, "migrations")
	require.NoError(t, err)

	body, err := fs.ReadFile(subtree, "001_create_todo.sql")
	require.NoError(t, err)

	assert.Contains(t, string(body), `CREATE TABLE dbo."Todo"`)
	assert.Contains(t, string(body), "---- create above / drop below ----")
}
