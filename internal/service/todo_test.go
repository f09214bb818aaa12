package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/deppfellow/tab-sso-backend/internal/errs"
	"github.com/deppfellow/tab-sso-backend/internal/model"
	"github.com/deppfellow/tab-sso-backend/internal/repository"
	"github.com/deppfellow/tab-sso-backend/internal/service"
	"github.com/deppfellow/tab-sso-backend/internal/testutil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type todoFixture struct {
	pool  *testutil.FakePool
	creds *testutil.FakeCredentials
	dir   *testutil.FakeDirectory
	svc   *service.TodoService
}

func newTodoFixture() *todoFixture {
	log := zerolog.Nop()
	f := &todoFixture{
		pool:  testutil.NewFakePool(),
		creds: &testutil.FakeCredentials{},
		dir:   testutil.NewFakeDirectory("u1"),
	}
	f.svc = service.NewTodoService(repository.NewTodoRepository(f.pool, &log), f.creds, f.dir)
	return f
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

func requireHTTPError(t *testing.T, err error, status int) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, status, httpErr.Status)
	return httpErr
}

func TestTodoService_Create(t *testing.T) {
	f := newTodoFixture()
	f.pool.Conn.Result = testutil.NewFakeRows(
		[]string{"id", "description", "isCompleted", "objectId", "channelOrChatId"},
		[]any{int32(7), "Buy milk", int16(0), "u1", "c1"},
	)

	rows, err := f.svc.Handle(context.Background(), "POST", "sso-token", &model.TodoRequest{
		Description:     strPtr("Buy milk"),
		IsCompleted:     false,
		ChannelOrChatID: "c1",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	queries := f.pool.Conn.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, []any{"Buy milk", "u1", int16(0), "c1"}, queries[0].Args)

	assert.Equal(t, []string{"sso-token"}, f.creds.Assertions())
	assert.Equal(t, []string{"obo:sso-token"}, f.dir.MeCredentials)
	assert.Equal(t, 1, f.pool.Conn.Released())
}

func TestTodoService_DeleteOwnedUsesCallerIdentity(t *testing.T) {
	f := newTodoFixture()

	rows, err := f.svc.Handle(context.Background(), "delete", "sso-token", &model.TodoRequest{})
	require.NoError(t, err)
	assert.NotNil(t, rows)

	queries := f.pool.Conn.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, []any{"u1"}, queries[0].Args)
	assert.Equal(t, 1, f.pool.Conn.Released())
}

func TestTodoService_MissingTokenTouchesNothing(t *testing.T) {
	f := newTodoFixture()

	_, err := f.svc.Handle(context.Background(), "GET", "", &model.TodoRequest{ChannelOrChatID: "c1"})
	httpErr := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, service.CodeMissingAccessToken, httpErr.Code)

	assert.Equal(t, 0, f.pool.Acquired())
	assert.Empty(t, f.creds.Assertions())
}

func TestTodoService_ConnectionFailure(t *testing.T) {
	f := newTodoFixture()
	f.pool.AcquireErr = errors.New("login failed for user")

	_, err := f.svc.Handle(context.Background(), "GET", "sso-token", &model.TodoRequest{ChannelOrChatID: "c1"})
	httpErr := requireHTTPError(t, err, http.StatusInternalServerError)
	assert.Contains(t, httpErr.Message, "login failed for user")
	assert.Empty(t, f.creds.Assertions())
}

// Every failure after the connection is acquired must still release it
// exactly once.
func TestTodoService_ReleasesOnEveryPath(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(f *todoFixture)
		method     string
		req        *model.TodoRequest
		wantStatus int
		wantInMsg  string
	}{
		{
			name:       "credential exchange",
			setup:      func(f *todoFixture) { f.creds.OnBehalfOfErr = errors.New("AADSTS50013: assertion failed") },
			method:     "GET",
			req:        &model.TodoRequest{ChannelOrChatID: "c1"},
			wantStatus: http.StatusInternalServerError,
			wantInMsg:  "AADSTS50013",
		},
		{
			name:       "profile lookup",
			setup:      func(f *todoFixture) { f.dir.MeErr = errors.New("graph unavailable") },
			method:     "GET",
			req:        &model.TodoRequest{ChannelOrChatID: "c1"},
			wantStatus: http.StatusInternalServerError,
			wantInMsg:  "graph unavailable",
		},
		{
			name:       "unsupported method",
			setup:      func(f *todoFixture) {},
			method:     "PATCH",
			req:        &model.TodoRequest{},
			wantStatus: http.StatusBadRequest,
			wantInMsg:  "unsupported method",
		},
		{
			name:       "missing field",
			setup:      func(f *todoFixture) {},
			method:     "PUT",
			req:        &model.TodoRequest{},
			wantStatus: http.StatusBadRequest,
			wantInMsg:  "Validation failed",
		},
		{
			name: "query failure",
			setup: func(f *todoFixture) {
				f.pool.Conn.QueryErr = &pgconn.PgError{
					Code:      "23514",
					Message:   `new row for relation "Todo" violates check constraint "todo_is_completed_check"`,
					TableName: "Todo",
				}
			},
			method:     "PUT",
			req:        &model.TodoRequest{ID: int64Ptr(1)},
			wantStatus: http.StatusInternalServerError,
			wantInMsg:  "violates check constraint",
		},
		{
			name:       "driver failure",
			setup:      func(f *todoFixture) { f.pool.Conn.QueryErr = errors.New("conn closed") },
			method:     "DELETE",
			req:        &model.TodoRequest{ID: int64Ptr(1)},
			wantStatus: http.StatusInternalServerError,
			wantInMsg:  "conn closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTodoFixture()
			tt.setup(f)

			_, err := f.svc.Handle(context.Background(), tt.method, "sso-token", tt.req)
			httpErr := requireHTTPError(t, err, tt.wantStatus)
			assert.Contains(t, httpErr.Message, tt.wantInMsg)

			assert.Equal(t, 1, f.pool.Acquired())
			assert.Equal(t, 1, f.pool.Conn.Released())
		})
	}
}

func TestTodoService_UnsupportedMethodIssuesNoStatement(t *testing.T) {
	f := newTodoFixture()

	_, err := f.svc.Handle(context.Background(), "OPTIONS", "sso-token", &model.TodoRequest{})
	require.Error(t, err)
	assert.Empty(t, f.pool.Conn.Queries())
}

func TestTodoService_ConsentRequired(t *testing.T) {
	f := newTodoFixture()
	f.creds.OnBehalfOfErr = errors.New("AADSTS65001: The user or administrator has not consented")

	_, err := f.svc.Handle(context.Background(), "GET", "sso-token", &model.TodoRequest{ChannelOrChatID: "c1"})
	httpErr := requireHTTPError(t, err, http.StatusInternalServerError)
	require.NotNil(t, httpErr.Action)
	assert.Equal(t, errs.ActionTypeConsent, httpErr.Action.Type)
	assert.Equal(t, service.CodeCredentialFailed, httpErr.Code)
}
