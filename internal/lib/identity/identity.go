// Package identity builds Azure AD credentials for Microsoft Graph: a
// delegated on-behalf-of credential per SSO token, and one application
// credential for the service itself.
package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/deppfellow/tab-sso-backend/internal/config"
)

type Factory struct {
	tenantID     string
	clientID     string
	clientSecret string
	scopes       []string
	options      azcore.ClientOptions

	now func() time.Time

	appOnce sync.Once
	app     azcore.TokenCredential
	appErr  error
}

// NewFactory validates cfg once at startup.
func NewFactory(cfg *config.AuthConfig) (*Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scopes := cfg.GraphScopes
	if len(scopes) == 0 {
		scopes = []string{config.DefaultGraphScope}
	}

	return &Factory{
		tenantID:     cfg.TenantID,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scopes:       scopes,
		options: azcore.ClientOptions{
			Cloud: cloud.Configuration{ActiveDirectoryAuthorityHost: cfg.AuthorityHost},
		},
		now: time.Now,
	}, nil
}

// Scopes are the Graph scopes every credential is used with.
func (f *Factory) Scopes() []string {
	return f.scopes
}

// OnBehalfOf returns a credential that acts as the user who presented
// assertion. Malformed or expired assertions fail here, before any call to
// Azure AD.
func (f *Factory) OnBehalfOf(assertion string) (azcore.TokenCredential, error) {
	if _, err := ParseSSOToken(assertion, f.now()); err != nil {
		return nil, err
	}

	cred, err := azidentity.NewOnBehalfOfCredentialWithSecret(
		f.tenantID,
		f.clientID,
		assertion,
		f.clientSecret,
		&azidentity.OnBehalfOfCredentialOptions{ClientOptions: f.options},
	)
	if err != nil {
		return nil, fmt.Errorf("create on-behalf-of credential: %w", err)
	}
	return cred, nil
}

// Application returns the client-secret credential of the service. It is
// built on first use and shared afterwards.
func (f *Factory) Application() (azcore.TokenCredential, error) {
	f.appOnce.Do(func() {
		cred, err := azidentity.NewClientSecretCredential(
			f.tenantID,
			f.clientID,
			f.clientSecret,
			&azidentity.ClientSecretCredentialOptions{ClientOptions: f.options},
		)
		if err != nil {
			f.appErr = fmt.Errorf("create application credential: %w", err)
			return
		}
		f.app = cred
	})
	return f.app, f.appErr
}

// Ping requests an application token for the Graph scopes.
func (f *Factory) Ping(ctx context.Context) error {
	cred, err := f.Application()
	if err != nil {
		return err
	}
	if _, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: f.scopes}); err != nil {
		return fmt.Errorf("acquire application token: %w", err)
	}
	return nil
}
