package testutil

import (
	"context"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/deppfellow/tab-sso-backend/internal/lib/graph"
)

// FakeToken is an azcore.TokenCredential that never calls Azure AD.
type FakeToken struct {
	Name string
}

func (t *FakeToken) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: t.Name}, nil
}

// FakeCredentials hands out FakeTokens and records what it was asked for.
type FakeCredentials struct {
	OnBehalfOfErr  error
	ApplicationErr error

	mu         sync.Mutex
	assertions []string
	appCalls   int
}

func (f *FakeCredentials) OnBehalfOf(assertion string) (azcore.TokenCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assertions = append(f.assertions, assertion)
	if f.OnBehalfOfErr != nil {
		return nil, f.OnBehalfOfErr
	}
	return &FakeToken{Name: "obo:" + assertion}, nil
}

func (f *FakeCredentials) Application() (azcore.TokenCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appCalls++
	if f.ApplicationErr != nil {
		return nil, f.ApplicationErr
	}
	return &FakeToken{Name: "app"}, nil
}

// Assertions lists every token passed to OnBehalfOf.
func (f *FakeCredentials) Assertions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.assertions...)
}

func (f *FakeCredentials) ApplicationCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appCalls
}

// Notification is one activity a FakeDirectory was asked to send.
type Notification struct {
	Credential string
	UserID     string
	Activity   graph.Activity
}

// FakeDirectory answers Graph calls from memory.
type FakeDirectory struct {
	Profile        graph.Profile
	MeErr          error
	Installations  map[string]string // userID -> installation id
	InstallErr     error
	SendErr        error
	MeCredentials  []string
	InstallLookups []string

	mu   sync.Mutex
	sent []Notification
}

func NewFakeDirectory(userID string) *FakeDirectory {
	return &FakeDirectory{
		Profile:       graph.Profile{ID: userID, DisplayName: "Test User"},
		Installations: map[string]string{userID: "install-" + userID},
	}
}

func (d *FakeDirectory) Me(ctx context.Context, cred azcore.TokenCredential) (*graph.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.MeCredentials = append(d.MeCredentials, tokenName(cred))
	if d.MeErr != nil {
		return nil, d.MeErr
	}
	p := d.Profile
	return &p, nil
}

func (d *FakeDirectory) InstallationID(ctx context.Context, cred azcore.TokenCredential, userID, appID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.InstallLookups = append(d.InstallLookups, userID+"/"+appID)
	if d.InstallErr != nil {
		return "", d.InstallErr
	}
	id, ok := d.Installations[userID]
	if !ok {
		return "", graph.ErrAppNotInstalled
	}
	return id, nil
}

func (d *FakeDirectory) SendActivityNotification(ctx context.Context, cred azcore.TokenCredential, userID string, a graph.Activity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SendErr != nil {
		return d.SendErr
	}
	d.sent = append(d.sent, Notification{Credential: tokenName(cred), UserID: userID, Activity: a})
	return nil
}

// Sent lists delivered notifications.
func (d *FakeDirectory) Sent() []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Notification(nil), d.sent...)
}

func tokenName(cred azcore.TokenCredential) string {
	if t, ok := cred.(*FakeToken); ok {
		return t.Name
	}
	return ""
}
