package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deppfellow/tab-sso-backend/internal/config"
	"github.com/deppfellow/tab-sso-backend/internal/errs"
	"github.com/deppfellow/tab-sso-backend/internal/lib/identity"
	"github.com/deppfellow/tab-sso-backend/internal/server"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(rateLimit float64) *server.Server {
	log := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server: config.ServerConfig{
				Port:               "0",
				CORSAllowedOrigins: []string{"*"},
				RateLimit:          rateLimit,
			},
		},
		Logger: &log,
	}
}

func ssoToken(t *testing.T, oid, tid string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identity.SSOClaims{
		ObjectID: oid,
		TenantID: tid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestExtractSSOToken(t *testing.T) {
	auth := NewAuthMiddleware(testServer(0))
	token := ssoToken(t, "u1", "t1")

	tests := []struct {
		name       string
		header     string
		wantToken  string
		wantUserID string
	}{
		{name: "no header"},
		{name: "not bearer", header: "Basic abc"},
		{name: "opaque bearer", header: "Bearer opaque", wantToken: "opaque"},
		{name: "sso token", header: "bearer " + token, wantToken: token, wantUserID: "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			called := false
			err := auth.ExtractSSOToken(func(c echo.Context) error {
				called = true
				return nil
			})(c)

			require.NoError(t, err)
			assert.True(t, called)
			assert.Equal(t, tt.wantToken, GetAccessToken(c))
			assert.Equal(t, tt.wantUserID, GetUserID(c))
		})
	}
}

func TestRequestID(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, RequestID()(func(echo.Context) error { return nil })(c))
	assert.Equal(t, "upstream-id", GetRequestID(c))
	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	require.NoError(t, RequestID()(func(echo.Context) error { return nil })(c))
	assert.Len(t, GetRequestID(c), 36)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGlobalErrorHandler(t *testing.T) {
	global := NewGlobalMiddlewares(testServer(0))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "http error",
			err:        errs.NewBadRequestError("unsupported method PATCH", true, nil, nil, nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
			wantMsg:    "unsupported method PATCH",
		},
		{
			name:       "plain error keeps its message",
			err:        errors.New("connection reset by peer"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
			wantMsg:    "connection reset by peer",
		},
		{
			name:       "unknown route",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "Route not found",
		},
		{
			name:       "echo error",
			err:        echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too big"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "REQUEST_ENTITY_TOO_LARGE",
			wantMsg:    "too big",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/todo", nil), rec)

			global.GlobalErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.EqualValues(t, tt.wantStatus, body["status"])
		})
	}
}

func TestRateLimit(t *testing.T) {
	s := testServer(1)
	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler
	e.GET("/limited", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, NewRateLimitMiddleware(s).Limit())

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestRateLimit_Disabled(t *testing.T) {
	s := testServer(0)
	e := echo.New()
	e.GET("/open", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, NewRateLimitMiddleware(s).Limit())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestNormalizeMethod(t *testing.T) {
	e := echo.New()
	e.Pre(NormalizeMethod())

	var got []string
	e.GET("/", func(c echo.Context) error {
		got = append(got, c.Request().Method)
		return c.NoContent(http.StatusNoContent)
	})

	for _, method := range []string{"GET", "get", "Get"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, method)
	}

	assert.Equal(t, []string{"GET", "GET", "GET"}, got)
}
