package repository

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/deppfellow/tab-sso-backend/internal/errs"
	"github.com/deppfellow/tab-sso-backend/internal/model"
)

// TodoTable is the fully qualified, quoted todo table.
const TodoTable = `dbo."Todo"`

// Statement is one parameterized SQL statement. Caller input only ever
// travels in Args.
type Statement struct {
	Op   string
	SQL  string
	Args []any
}

// ErrUnsupportedMethod is returned for methods that map to no statement.
var ErrUnsupportedMethod = errors.New("unsupported method")

const (
	OpRead        = "read"
	OpUpdateText  = "update_description"
	OpUpdateState = "update_is_completed"
	OpCreate      = "create"
	OpDeleteOne   = "delete_by_id"
	OpDeleteOwned = "delete_owned"
)

// BuildTodoStatement maps an HTTP method (any case) and request onto the
// single statement that request issues.
//
//   - GET: every row of req.ChannelOrChatID
//   - PUT: description when present, otherwise isCompleted (0/1), for req.ID
//   - POST: insert owned by objectID
//   - DELETE: row req.ID, or every row owned by objectID when no id is given
//
// Missing per-method fields are 400s; unknown methods wrap ErrUnsupportedMethod.
func BuildTodoStatement(method string, req *model.TodoRequest, objectID string) (Statement, error) {
	if req == nil {
		req = &model.TodoRequest{}
	}

	switch strings.ToUpper(method) {
	case http.MethodGet:
		if req.ChannelOrChatID == "" {
			return Statement{}, missingField("channelOrChatId")
		}
		return Statement{
			Op:   OpRead,
			SQL:  `SELECT * FROM ` + TodoTable + ` WHERE "channelOrChatId" = $1 ORDER BY id`,
			Args: []any{req.ChannelOrChatID},
		}, nil

	case http.MethodPut:
		if req.ID == nil {
			return Statement{}, missingField("id")
		}
		if req.Description != nil {
			return Statement{
				Op:   OpUpdateText,
				SQL:  `UPDATE ` + TodoTable + ` SET description = $1 WHERE id = $2 RETURNING *`,
				Args: []any{*req.Description, *req.ID},
			}, nil
		}
		return Statement{
			Op:   OpUpdateState,
			SQL:  `UPDATE ` + TodoTable + ` SET "isCompleted" = $1 WHERE id = $2 RETURNING *`,
			Args: []any{req.IsCompleted.Bit(), *req.ID},
		}, nil

	case http.MethodPost:
		var fieldErrors []errs.FieldError
		if req.Description == nil {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: "description", Error: "is required"})
		}
		if req.ChannelOrChatID == "" {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: "channelOrChatId", Error: "is required"})
		}
		if fieldErrors != nil {
			return Statement{}, errs.NewBadRequestError("Validation failed", true, nil, fieldErrors, nil)
		}
		return Statement{
			Op: OpCreate,
			SQL: `INSERT INTO ` + TodoTable + ` (description, "objectId", "isCompleted", "channelOrChatId")` +
				` VALUES ($1, $2, $3, $4) RETURNING *`,
			Args: []any{*req.Description, objectID, req.IsCompleted.Bit(), req.ChannelOrChatID},
		}, nil

	case http.MethodDelete:
		if req.ID != nil {
			return Statement{
				Op:   OpDeleteOne,
				SQL:  `DELETE FROM ` + TodoTable + ` WHERE id = $1 RETURNING *`,
				Args: []any{*req.ID},
			}, nil
		}
		return Statement{
			Op:   OpDeleteOwned,
			SQL:  `DELETE FROM ` + TodoTable + ` WHERE "objectId" = $1 RETURNING *`,
			Args: []any{objectID},
		}, nil

	default:
		return Statement{}, fmt.Errorf("%w %s", ErrUnsupportedMethod, method)
	}
}

func missingField(field string) *errs.HTTPError {
	return errs.NewBadRequestError(
		"Validation failed",
		true,
		nil,
		[]errs.FieldError{{Field: field, Error: "is required"}},
		nil,
	)
}
