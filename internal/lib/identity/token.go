package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SSOClaims are the claims of a Teams tab SSO token that the service reads.
type SSOClaims struct {
	ObjectID          string `json:"oid"`
	TenantID          string `json:"tid"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	jwt.RegisteredClaims
}

// ParseSSOToken decodes token without verifying its signature. Azure AD
// verifies the assertion during the on-behalf-of exchange; this only
// rejects tokens that cannot possibly succeed there.
//
// token is the bare assertion; the Authorization scheme must already be
// stripped.
func ParseSSOToken(token string, now time.Time) (*SSOClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("sso token: %w", jwt.ErrTokenMalformed)
	}

	claims := &SSOClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("sso token: %w", err)
	}

	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("sso token expired at %s: %w",
			claims.ExpiresAt.Time.UTC().Format(time.RFC3339), jwt.ErrTokenExpired)
	}

	return claims, nil
}
