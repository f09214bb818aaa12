// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, resolves the caller's
// identity through Azure AD and Microsoft Graph, and calls repository
// methods to interact with the data.
package service

import (
	"context"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/deppfellow/tab-sso-backend/internal/errs"
	"github.com/deppfellow/tab-sso-backend/internal/lib/graph"
)

// Credentials exchanges an SSO token for a delegated Graph credential.
type Credentials interface {
	OnBehalfOf(assertion string) (azcore.TokenCredential, error)
}

// Directory reads the profile of the user a credential acts for.
type Directory interface {
	Me(ctx context.Context, cred azcore.TokenCredential) (*graph.Profile, error)
}

// Error codes of the identity failures.
const (
	CodeMissingAccessToken = "MISSING_ACCESS_TOKEN"
	CodeCredentialFailed   = "CREDENTIAL_EXCHANGE_FAILED"
)

// errMissingAccessToken is returned before any other work when the request
// carries no SSO token.
func errMissingAccessToken() *errs.HTTPError {
	code := CodeMissingAccessToken
	return errs.NewBadRequestError("No access token was found in request header.", true, &code, nil, nil)
}

// credentialError is a 500 carrying err's message. Azure AD reports missing
// consent as AADSTS65001; the tab is then told to ask for User.Read again.
func credentialError(err error) *errs.HTTPError {
	code := CodeCredentialFailed
	httpErr := errs.NewInternalServerErrorFrom(err, &code)

	if strings.Contains(err.Error(), "AADSTS65001") {
		httpErr = httpErr.WithAction(&errs.Action{
			Type:    errs.ActionTypeConsent,
			Message: "The user or administrator has not consented to use the application.",
			Value:   "User.Read",
		})
	}
	return httpErr
}

// callerProfile exchanges token and reads the caller's Graph profile.
func callerProfile(ctx context.Context, creds Credentials, dir Directory, token string) (*graph.Profile, error) {
	cred, err := creds.OnBehalfOf(token)
	if err != nil {
		return nil, credentialError(err)
	}

	profile, err := dir.Me(ctx, cred)
	if err != nil {
		return nil, credentialError(err)
	}
	return profile, nil
}
