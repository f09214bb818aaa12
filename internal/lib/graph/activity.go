package graph

import (
	"sort"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"
)

// InstalledAppURL is the entity URL of an app installation, the topic of a
// user-scoped activity notification.
func InstalledAppURL(userID, installationID string) string {
	return "https://graph.microsoft.com/v1.0/users/" + userID + "/teamwork/installedApps/" + installationID
}

// Activity is one activity feed notification.
type Activity struct {
	TopicURL           string
	ActivityType       string
	PreviewText        string
	TemplateParameters map[string]string
}

// RequestBody builds the sendActivityNotification payload. Template
// parameters are emitted sorted by name.
func (a Activity) RequestBody() users.ItemTeamworkSendActivityNotificationPostRequestBodyable {
	body := users.NewItemTeamworkSendActivityNotificationPostRequestBody()

	topic := models.NewTeamworkActivityTopic()
	source := models.ENTITYURL_TEAMWORKACTIVITYTOPICSOURCE
	topic.SetSource(&source)
	topic.SetValue(ptr(a.TopicURL))
	body.SetTopic(topic)

	body.SetActivityType(ptr(a.ActivityType))

	preview := models.NewItemBody()
	preview.SetContent(ptr(a.PreviewText))
	body.SetPreviewText(preview)

	names := make([]string, 0, len(a.TemplateParameters))
	for name := range a.TemplateParameters {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]models.KeyValuePairable, 0, len(names))
	for _, name := range names {
		kv := models.NewKeyValuePair()
		kv.SetName(ptr(name))
		kv.SetValue(ptr(a.TemplateParameters[name]))
		params = append(params, kv)
	}
	body.SetTemplateParameters(params)

	return body
}

func ptr(s string) *string {
	return &s
}
