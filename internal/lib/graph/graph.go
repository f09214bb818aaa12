// Package graph wraps the Microsoft Graph SDK calls the service makes:
// reading the signed-in user's profile, finding the Teams app installation
// for a user and posting activity feed notifications.
package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
	"github.com/microsoftgraph/msgraph-sdk-go/users"
)

// ErrAppNotInstalled is returned when the Teams app is not installed for
// the user being notified.
var ErrAppNotInstalled = errors.New("teams app is not installed for user")

// Profile is the subset of the Graph user the service reads.
type Profile struct {
	ID                string
	DisplayName       string
	Mail              string
	UserPrincipalName string
}

// Client issues Graph requests with whichever credential the caller holds.
type Client struct {
	scopes []string
}

func NewClient(scopes []string) *Client {
	return &Client{scopes: scopes}
}

func (c *Client) service(cred azcore.TokenCredential) (*msgraphsdk.GraphServiceClient, error) {
	gc, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, c.scopes)
	if err != nil {
		return nil, fmt.Errorf("create graph client: %w", err)
	}
	return gc, nil
}

// Me reads the profile of the user cred acts for.
func (c *Client) Me(ctx context.Context, cred azcore.TokenCredential) (*Profile, error) {
	gc, err := c.service(cred)
	if err != nil {
		return nil, err
	}

	user, err := gc.Me().Get(ctx, &users.UserItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.UserItemRequestBuilderGetQueryParameters{
			Select: []string{"id", "displayName", "mail", "userPrincipalName"},
		},
	})
	if err != nil {
		return nil, describe("read profile", err)
	}

	profile := &Profile{
		ID:                deref(user.GetId()),
		DisplayName:       deref(user.GetDisplayName()),
		Mail:              deref(user.GetMail()),
		UserPrincipalName: deref(user.GetUserPrincipalName()),
	}
	if profile.ID == "" {
		return nil, errors.New("read profile: graph returned a user without id")
	}
	return profile, nil
}

// InstallationID returns the id of the installation of the Teams app whose
// manifest id is appID in userID's personal scope.
func (c *Client) InstallationID(ctx context.Context, cred azcore.TokenCredential, userID, appID string) (string, error) {
	gc, err := c.service(cred)
	if err != nil {
		return "", err
	}

	filter := InstalledAppFilter(appID)
	resp, err := gc.Users().ByUserId(userID).Teamwork().InstalledApps().Get(ctx,
		&users.ItemTeamworkInstalledAppsRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemTeamworkInstalledAppsRequestBuilderGetQueryParameters{
				Expand: []string{"teamsApp"},
				Filter: &filter,
			},
		})
	if err != nil {
		return "", describe("list installed apps", err)
	}

	for _, app := range resp.GetValue() {
		if id := deref(app.GetId()); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: user %s, app %s", ErrAppNotInstalled, userID, appID)
}

// SendActivityNotification posts a to userID's activity feed.
func (c *Client) SendActivityNotification(ctx context.Context, cred azcore.TokenCredential, userID string, a Activity) error {
	gc, err := c.service(cred)
	if err != nil {
		return err
	}

	body := a.RequestBody()
	if err := gc.Users().ByUserId(userID).Teamwork().SendActivityNotification().Post(ctx, body, nil); err != nil {
		return describe("send activity notification", err)
	}
	return nil
}

// InstalledAppFilter is the OData filter selecting the installation of the
// app with manifest id appID.
func InstalledAppFilter(appID string) string {
	return "teamsApp/externalId eq '" + strings.ReplaceAll(appID, "'", "''") + "'"
}

// describe flattens Graph OData errors, whose Error() carries no detail,
// into code and message.
func describe(op string, err error) error {
	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		if main := odataErr.GetErrorEscaped(); main != nil {
			return fmt.Errorf("%s: %s: %s: %w", op, deref(main.GetCode()), deref(main.GetMessage()), err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
