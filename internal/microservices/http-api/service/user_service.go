package service

import (
	"context"
	"errors"
	"fmt"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/validation"
)

type UserService interface {
	List(ctx context.Context, search string, page dto.Page) ([]models.User, int64, error)
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, username string) (*models.User, error)
	// Update applies a partial update; the role is only touched when allowRole is set.
	Update(ctx context.Context, username string, in dto.UpdateUserDTO, allowRole bool) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type userService struct {
	users repository.UserRepository
	cache TitleCache
}

func NewUserService(users repository.UserRepository, cache TitleCache) UserService {
	return &userService{users: users, cache: cache}
}

func (s *userService) List(ctx context.Context, search string, page dto.Page) ([]models.User, int64, error) {
	return s.users.List(ctx, search, page.Limit, page.Offset)
}

func (s *userService) Create(ctx context.Context, u *models.User) error {
	if u.Username == validation.ReservedUsername {
		return fieldError("username", fmt.Sprintf("Username %q is not allowed.", u.Username))
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if !u.Role.Valid() {
		return fieldError("role", fmt.Sprintf("%q is not a valid choice.", u.Role))
	}
	if err := s.checkUnique(ctx, u.ID, u.Username, u.Email); err != nil {
		return err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return duplicateUser(err)
	}
	return nil
}

func (s *userService) Get(ctx context.Context, username string) (*models.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(fmt.Sprintf("user %q", username), err)
	}
	return u, nil
}

func (s *userService) Update(ctx context.Context, username string, in dto.UpdateUserDTO, allowRole bool) (*models.User, error) {
	u, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	in.Apply(u, allowRole)
	if u.Username == validation.ReservedUsername {
		return nil, fieldError("username", fmt.Sprintf("Username %q is not allowed.", u.Username))
	}
	if !u.Role.Valid() {
		return nil, fieldError("role", fmt.Sprintf("%q is not a valid choice.", u.Role))
	}
	if err := s.checkUnique(ctx, u.ID, u.Username, u.Email); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, duplicateUser(err)
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		return notFound(fmt.Sprintf("user %q", username), err)
	}
	// the user's reviews went with them, cached ratings are stale
	invalidateAllTitles(ctx, s.cache)
	return nil
}

// checkUnique rejects a username or email owned by a user other than selfID.
func (s *userService) checkUnique(ctx context.Context, selfID, username, email string) error {
	other, err := s.users.FindByUsername(ctx, username)
	if err != nil && !repository.IsNotFound(err) {
		return err
	}
	if other != nil && other.ID != selfID {
		return fieldError("username", "A user with that username already exists.")
	}

	other, err = s.users.FindByEmail(ctx, email)
	if err != nil && !repository.IsNotFound(err) {
		return err
	}
	if other != nil && other.ID != selfID {
		return fieldError("email", "A user with that email already exists.")
	}
	return nil
}

func duplicateUser(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return fieldError("username", "A user with that username or email already exists.")
	}
	return err
}
