package manager

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
)

// User resolves and creates directory users.
type User interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByIdentifier accepts either a user UUID or an email address.
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	Create(ctx context.Context, email, displayName string) (*model.User, error)
}

type UserManager struct {
	repo repo.Repo
}

var _ User = &UserManager{}

func NewUserManager(repository repo.Repo) *UserManager {
	return &UserManager{repo: repository}
}

func (m *UserManager) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user := &model.User{ID: id}
	_, err := m.repo.First(ctx, user, *repo.NewQuery())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrUserNotFound, err)
		}
		return nil, err
	}
	return user, nil
}

func (m *UserManager) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		return m.GetByID(ctx, id)
	}

	user := &model.User{}
	_, err := m.repo.First(ctx, user,
		*repo.NewQuery().Where(repo.EmailField, model.NormalizeEmail(identifier)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.Wrap(ErrUserNotFound, err)
		}
		return nil, err
	}
	return user, nil
}

func (m *UserManager) Create(ctx context.Context, email, displayName string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, errs.Wrapf(ErrNameCannotBeEmpty, "email is required")
	}

	_, err := m.repo.First(ctx, &model.User{}, *repo.NewQuery().Where(repo.EmailField, email))
	if err == nil {
		return nil, errs.Wrapf(ErrDuplicateEmail, "%q", email)
	}

	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	user := &model.User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
	}
	err = m.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repo.ErrUniqueConstraint) {
			return nil, errs.Wrap(ErrDuplicateEmail, err)
		}
		return nil, err
	}
	return user, nil
}
