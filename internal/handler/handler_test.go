package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deppfellow/tab-sso-backend/internal/config"
	"github.com/deppfellow/tab-sso-backend/internal/middleware"
	"github.com/deppfellow/tab-sso-backend/internal/model"
	"github.com/deppfellow/tab-sso-backend/internal/repository"
	"github.com/deppfellow/tab-sso-backend/internal/server"
	"github.com/deppfellow/tab-sso-backend/internal/service"
	"github.com/deppfellow/tab-sso-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	e        *echo.Echo
	pool     *testutil.FakePool
	creds    *testutil.FakeCredentials
	dir      *testutil.FakeDirectory
	queue    *testutil.FakeEnqueuer
	detacher *testutil.ManualDetacher
}

func testServer() *server.Server {
	log := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Primary:       config.Primary{Env: "test"},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &log,
	}
}

func newFixture() *fixture {
	s := testServer()
	f := &fixture{
		e:        echo.New(),
		pool:     testutil.NewFakePool(),
		creds:    &testutil.FakeCredentials{},
		dir:      testutil.NewFakeDirectory("u1"),
		queue:    &testutil.FakeEnqueuer{},
		detacher: &testutil.ManualDetacher{},
	}

	todo := NewTodoHandler(s, service.NewTodoService(
		repository.NewTodoRepository(f.pool, s.Logger), f.creds, f.dir))
	notification := NewNotificationHandler(s, service.NewNotificationService(
		f.creds, f.dir, f.queue, f.detacher))

	f.e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(s).GlobalErrorHandler
	f.e.Use(middleware.NewAuthMiddleware(s).ExtractSSOToken)
	f.e.Any("/api/todo", Handle(todo.Handler, todo.HandleTodo, http.StatusOK, model.NewTodoRequest))
	f.e.Any("/api/notification", Handle(notification.Handler, notification.Notify, http.StatusOK, model.NewNotificationRequest))
	return f
}

func (f *fixture) do(method, target, body string, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestTodo_Read(t *testing.T) {
	f := newFixture()
	f.pool.Conn.Result = testutil.NewFakeRows(
		[]string{"id", "description", "isCompleted", "objectId", "channelOrChatId"},
		[]any{int32(1), "Buy milk", int16(0), "u1", "c1"},
	)

	rec := f.do(http.MethodGet, "/api/todo?channelOrChatId=c1", "", "sso-token")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`[{"id":1,"description":"Buy milk","isCompleted":0,"objectId":"u1","channelOrChatId":"c1"}]`,
		rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Body.String(), `[{"id":1,"description"`))

	queries := f.pool.Conn.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, []any{"c1"}, queries[0].Args)
	assert.Equal(t, 1, f.pool.Conn.Released())
}

func TestTodo_CreateUpdateDelete(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		wantArgs []any
	}{
		{
			name:     "create",
			method:   http.MethodPost,
			body:     `{"description":"Buy milk","isCompleted":false,"channelOrChatId":"c1"}`,
			wantArgs: []any{"Buy milk", "u1", int16(0), "c1"},
		},
		{
			name:     "update description",
			method:   http.MethodPut,
			body:     `{"id":5,"description":"Buy oat milk","isCompleted":true}`,
			wantArgs: []any{"Buy oat milk", int64(5)},
		},
		{
			name:     "update completion",
			method:   http.MethodPut,
			body:     `{"id":5,"isCompleted":"yes"}`,
			wantArgs: []any{int16(1), int64(5)},
		},
		{
			name:     "delete one",
			method:   http.MethodDelete,
			body:     `{"id":5}`,
			wantArgs: []any{int64(5)},
		},
		{
			name:     "delete owned",
			method:   http.MethodDelete,
			wantArgs: []any{"u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			rec := f.do(tt.method, "/api/todo", tt.body, "sso-token")

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.JSONEq(t, `[]`, rec.Body.String())

			queries := f.pool.Conn.Queries()
			require.Len(t, queries, 1)
			assert.Equal(t, tt.wantArgs, queries[0].Args)
			assert.Equal(t, 1, f.pool.Conn.Released())
		})
	}
}

func TestTodo_Errors(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(f *fixture)
		method       string
		target       string
		body         string
		token        string
		wantStatus   int
		wantInError  string
		wantAcquired int
		wantQueries  int
	}{
		{
			name:        "missing token",
			method:      http.MethodGet,
			target:      "/api/todo?channelOrChatId=c1",
			wantStatus:  http.StatusBadRequest,
			wantInError: "No access token",
		},
		{
			name:         "unsupported method",
			method:       http.MethodPatch,
			target:       "/api/todo",
			token:        "sso-token",
			wantStatus:   http.StatusBadRequest,
			wantInError:  "unsupported method PATCH",
			wantAcquired: 1,
		},
		{
			name:        "malformed body",
			method:      http.MethodPost,
			target:      "/api/todo",
			body:        `{"description":`,
			token:       "sso-token",
			wantStatus:  http.StatusBadRequest,
			wantInError: "",
		},
		{
			name:        "invalid id",
			method:      http.MethodPut,
			target:      "/api/todo",
			body:        `{"id":0}`,
			token:       "sso-token",
			wantStatus:  http.StatusBadRequest,
			wantInError: "Validation failed",
		},
		{
			name:         "connection failure",
			setup:        func(f *fixture) { f.pool.AcquireErr = errors.New("server is not reachable") },
			method:       http.MethodGet,
			target:       "/api/todo?channelOrChatId=c1",
			token:        "sso-token",
			wantStatus:   http.StatusInternalServerError,
			wantInError:  "server is not reachable",
			wantAcquired: 0,
		},
		{
			name:         "exchange failure",
			setup:        func(f *fixture) { f.creds.OnBehalfOfErr = errors.New("AADSTS50013: invalid assertion") },
			method:       http.MethodGet,
			target:       "/api/todo?channelOrChatId=c1",
			token:        "sso-token",
			wantStatus:   http.StatusInternalServerError,
			wantInError:  "AADSTS50013: invalid assertion",
			wantAcquired: 1,
		},
		{
			name:         "query failure",
			setup:        func(f *fixture) { f.pool.Conn.QueryErr = errors.New("deadlock detected") },
			method:       http.MethodDelete,
			target:       "/api/todo",
			token:        "sso-token",
			wantStatus:   http.StatusInternalServerError,
			wantInError:  "deadlock detected",
			wantAcquired: 1,
			wantQueries:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			rec := f.do(tt.method, tt.target, tt.body, tt.token)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantInError)

			assert.Equal(t, tt.wantAcquired, f.pool.Acquired())
			assert.Equal(t, tt.wantAcquired, f.pool.Conn.Released())
			assert.Len(t, f.pool.Conn.Queries(), tt.wantQueries)
		})
	}
}

func TestNotification(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/notification", "", "sso-token")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Headers map[string]string `json:"headers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "[REDACTED]", body.Headers["Authorization"])

	// Delivery is still pending when the response is written.
	assert.Empty(t, f.queue.Users())
	assert.Equal(t, []error{nil}, f.detacher.RunAll())
	assert.Equal(t, []string{"u1"}, f.queue.Users())
}

func TestNotification_IgnoresBody(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/notification", strings.NewReader("ping"))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	req.Header.Set(echo.HeaderAuthorization, "Bearer sso-token")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, f.detacher.Pending())
}

func TestNotification_MissingToken(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/notification", "", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.creds.Assertions())
	assert.Zero(t, f.detacher.Pending())
}

func TestNotification_CredentialFailure(t *testing.T) {
	f := newFixture()
	f.creds.OnBehalfOfErr = errors.New("sso token: token is malformed")

	rec := f.do(http.MethodGet, "/api/notification", "", "garbage")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "token is malformed")
	assert.Zero(t, f.detacher.Pending())
}

func TestCheckHealth(t *testing.T) {
	s := testServer()

	tests := []struct {
		name       string
		checks     []healthCheck
		wantStatus int
	}{
		{
			name: "all healthy",
			checks: []healthCheck{
				{name: "database", critical: true, ping: func(context.Context) error { return nil }},
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "non-critical failure",
			checks: []healthCheck{
				{name: "database", critical: true, ping: func(context.Context) error { return nil }},
				{name: "redis", ping: func(context.Context) error { return testutil.ErrBoom }},
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "critical failure",
			checks: []healthCheck{
				{name: "identity", critical: true, ping: func(context.Context) error { return testutil.ErrBoom }},
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HealthHandler{Handler: NewHandler(s), checks: tt.checks, timeout: DefaultHealthCheckTimeout}

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), rec)

			require.NoError(t, h.CheckHealth(c))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Len(t, body["checks"], len(tt.checks))
		})
	}
}

func TestServeOpenAPIUI(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openapi.html"), []byte("<html>docs</html>"), 0o600))

	h := &OpenAPIHandler{Handler: NewHandler(testServer()), staticDir: dir}

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/docs", nil), rec)

	require.NoError(t, h.ServeOpenAPIUI(c))
	assert.Equal(t, "<html>docs</html>", rec.Body.String())
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	h.staticDir = filepath.Join(dir, "missing")
	assert.Error(t, h.ServeOpenAPIUI(e.NewContext(httptest.NewRequest(http.MethodGet, "/docs", nil), httptest.NewRecorder())))
}
