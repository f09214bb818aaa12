package middleware

import (
	"strings"
	"time"

	"github.com/deppfellow/tab-sso-backend/internal/lib/identity"
	"github.com/deppfellow/tab-sso-backend/internal/server"
	"github.com/labstack/echo/v4"
)

// AccessTokenKey is the Echo context key of the caller's SSO token.
const AccessTokenKey = "access_token"

// AuthMiddleware makes the Teams SSO token available to handlers.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// ExtractSSOToken stores the bearer token of the Authorization header under
// AccessTokenKey and, when its claims decode, the caller's object id under
// "user_id" for log and trace correlation.
//
// It never rejects a request: a missing token is answered by the handler,
// and the token's validity is decided by Azure AD during the exchange.
func (auth *AuthMiddleware) ExtractSSOToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if token == "" {
			return next(c)
		}

		c.Set(AccessTokenKey, token)

		claims, err := identity.ParseSSOToken(token, time.Now())
		if err != nil {
			auth.server.Logger.Debug().
				Err(err).
				Str("function", "ExtractSSOToken").
				Str("request_id", GetRequestID(c)).
				Msg("sso token claims unreadable")
			return next(c)
		}

		if claims.ObjectID != "" {
			c.Set(UserIDKey, claims.ObjectID)
		}
		if claims.TenantID != "" {
			c.Set(TenantIDKey, claims.TenantID)
		}

		return next(c)
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetAccessToken returns the caller's SSO token, or "" when none was sent.
func GetAccessToken(c echo.Context) string {
	if token, ok := c.Get(AccessTokenKey).(string); ok {
		return token
	}
	return ""
}
