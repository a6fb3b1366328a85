package service

import (
	"context"
	"fmt"
	"time"

	"userhandler/internal/auth"
	"userhandler/internal/cache"
	apperrors "userhandler/internal/errors"
	"userhandler/internal/model"
	"userhandler/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// CreateUserInput carries an administrative user creation. Role defaults to USER.
type CreateUserInput struct {
	Name     string
	Email    string
	Username string
	Password string
	Birthday string // yyyy-MM-dd
	Role     model.Role
}

// UpdateUserInput holds the only mutable fields of a user.
type UpdateUserInput struct {
	Name  string
	Email string
}

// UserService exposes user record operations projected onto the public view.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.UserView, error)
	GetUser(ctx context.Context, id uint) (*model.UserView, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*model.UserView, error)
	UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*model.UserView, error)
	DeleteUser(ctx context.Context, id uint) (bool, error)
	AverageAge(ctx context.Context) (float64, error)
	UsersInAgeRange(ctx context.Context, low, high int) ([]model.UserView, error)
}

type userService struct {
	repo   repository.UserRepository
	hasher auth.Hasher
	cache  *cache.Client
	opts   options
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, hasher auth.Hasher, cache *cache.Client, opts ...Option) UserService {
	return &userService{repo: repo, hasher: hasher, cache: cache, opts: buildOptions(opts)}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) ListUsers(ctx context.Context) ([]model.UserView, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return model.Views(users), nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.UserView, error) {
	var cached model.UserView
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	view := user.View()
	s.cache.SetJSON(ctx, s.cacheKey(id), view, userCacheTTL)
	return &view, nil
}

// CreateUser stores a fully specified user without issuing a token.
func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*model.UserView, error) {
	role := input.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	if err := checkUsername(input.Username); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateEmail
	}

	birthday, err := parseBirthday(input.Birthday, s.opts.now())
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hashed,
		Role:         role,
		Birthday:     birthday,
	}
	if _, err := s.repo.Save(ctx, user); err != nil {
		return nil, duplicateError(ctx, s.repo, err, input.Email, "create user")
	}

	view := user.View()
	return &view, nil
}

// UpdateUser replaces name and email of an existing user.
func (s *userService) UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*model.UserView, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	user.Name = input.Name
	user.Email = input.Email
	if _, err := s.repo.Save(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	view := user.View()
	return &view, nil
}

// DeleteUser removes the user and reports whether it existed.
func (s *userService) DeleteUser(ctx context.Context, id uint) (bool, error) {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete user %d: %w", id, err)
	}
	if !exists {
		return false, nil
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete user %d: %w", id, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return deleted, nil
}

// AverageAge uses calendar-year subtraction, ignoring month and day.
func (s *userService) AverageAge(ctx context.Context) (float64, error) {
	avg, err := s.repo.AverageAge(ctx, s.opts.now().Year())
	if err != nil {
		return 0, fmt.Errorf("average age: %w", err)
	}
	return avg, nil
}

// UsersInAgeRange lists users whose calendar-year age lies in [low, high].
func (s *userService) UsersInAgeRange(ctx context.Context, low, high int) ([]model.UserView, error) {
	if low < 0 || high < low {
		return nil, apperrors.ErrInvalidAgeRange
	}
	users, err := s.repo.FindByAgeRange(ctx, s.opts.now().Year(), low, high)
	if err != nil {
		return nil, fmt.Errorf("users in age range: %w", err)
	}
	return model.Views(users), nil
}
