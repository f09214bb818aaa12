package service

import (
	"context"
	"errors"

	"github.com/deppfellow/tab-sso-backend/internal/errs"
	"github.com/deppfellow/tab-sso-backend/internal/model"
	"github.com/deppfellow/tab-sso-backend/internal/repository"
	"github.com/deppfellow/tab-sso-backend/internal/sqlerr"
)

type TodoService struct {
	repo  *repository.TodoRepository
	creds Credentials
	dir   Directory
}

func NewTodoService(repo *repository.TodoRepository, creds Credentials, dir Directory) *TodoService {
	return &TodoService{repo: repo, creds: creds, dir: dir}
}

// Handle runs the one statement method maps to, as the caller identified
// by token. The store connection is acquired before the identity exchange
// and released on every path out.
func (s *TodoService) Handle(ctx context.Context, method, token string, req *model.TodoRequest) ([]repository.Row, error) {
	if token == "" {
		return nil, errMissingAccessToken()
	}

	session, err := s.repo.Open(ctx)
	if err != nil {
		return nil, errs.NewInternalServerErrorFrom(err, nil)
	}
	defer session.Close()

	profile, err := callerProfile(ctx, s.creds, s.dir, token)
	if err != nil {
		return nil, err
	}

	stmt, err := repository.BuildTodoStatement(method, req, profile.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUnsupportedMethod) {
			return nil, errs.NewBadRequestError(err.Error(), true, nil, nil, nil)
		}
		return nil, err
	}

	rows, err := session.Exec(ctx, stmt)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return rows, nil
}
