// Package model holds request payloads shared by handlers, services and
// repositories.
package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// TodoRequest is the union of everything the todo route accepts. Which
// fields matter depends on the method: channelOrChatId from the query for
// reads, the JSON body for everything else.
type TodoRequest struct {
	ID              *int64  `json:"id" query:"id" validate:"omitempty,min=1"`
	Description     *string `json:"description" validate:"omitempty,max=4000"`
	IsCompleted     Truthy  `json:"isCompleted"`
	ChannelOrChatID string  `json:"channelOrChatId" query:"channelOrChatId" validate:"max=512"`
}

func NewTodoRequest() *TodoRequest {
	return &TodoRequest{}
}

// Validate checks field shapes only; per-method requirements are enforced
// where the statement is built.
func (r *TodoRequest) Validate() error {
	return validate.Struct(r)
}

// Truthy decodes any JSON value with JavaScript truthiness: false, 0, "",
// null and an absent field are false; everything else is true.
type Truthy bool

func (t *Truthy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*t = false
	case bytes.Equal(data, []byte("true")):
		*t = true
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = s != ""
	case data[0] == '[' || data[0] == '{':
		*t = true
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*t = f != 0
	}
	return nil
}

// Bit returns 1 for true and 0 for false, the stored form of isCompleted.
func (t Truthy) Bit() int16 {
	if t {
		return 1
	}
	return 0
}

// NotificationRequest carries nothing; the notification route only needs
// the access token and headers. Its body is never read.
type NotificationRequest struct{}

func NewNotificationRequest() *NotificationRequest {
	return &NotificationRequest{}
}

func (r *NotificationRequest) SkipBind() bool {
	return true
}

func (r *NotificationRequest) Validate() error {
	return nil
}
