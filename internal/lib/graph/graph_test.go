package graph

import (
	"testing"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstalledAppFilter(t *testing.T) {
	assert.Equal(t, "teamsApp/externalId eq 'abc'", InstalledAppFilter("abc"))
	assert.Equal(t, "teamsApp/externalId eq 'a''b'", InstalledAppFilter("a'b"))
}

func TestInstalledAppURL(t *testing.T) {
	assert.Equal(t,
		"https://graph.microsoft.com/v1.0/users/u1/teamwork/installedApps/i1",
		InstalledAppURL("u1", "i1"))
}

func TestActivity_RequestBody(t *testing.T) {
	body := Activity{
		TopicURL:     InstalledAppURL("u1", "i1"),
		ActivityType: "taskCreated",
		PreviewText:  "New Task Created",
		TemplateParameters: map[string]string{
			"taskName": "New Task",
			"owner":    "Ada",
		},
	}.RequestBody()

	topic := body.GetTopic()
	require.NotNil(t, topic)
	require.NotNil(t, topic.GetSource())
	assert.Equal(t, models.ENTITYURL_TEAMWORKACTIVITYTOPICSOURCE, *topic.GetSource())
	assert.Equal(t, "https://graph.microsoft.com/v1.0/users/u1/teamwork/installedApps/i1", *topic.GetValue())

	assert.Equal(t, "taskCreated", *body.GetActivityType())
	assert.Equal(t, "New Task Created", *body.GetPreviewText().GetContent())

	params := body.GetTemplateParameters()
	require.Len(t, params, 2)
	assert.Equal(t, "owner", *params[0].GetName())
	assert.Equal(t, "Ada", *params[0].GetValue())
	assert.Equal(t, "taskName", *params[1].GetName())
	assert.Equal(t, "New Task", *params[1].GetValue())
}

func TestActivity_RequestBodyWithoutParameters(t *testing.T) {
	body := Activity{TopicURL: "x", ActivityType: "y", PreviewText: "z"}.RequestBody()
	assert.Empty(t, body.GetTemplateParameters())
}
