package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that the supplied password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when the username or email is already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user has the given username.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidInput is returned when a required field is missing.
	ErrInvalidInput = errors.New("invalid input")
)

// SignupInput carries the fields of a registration request. Picture is the
// stored name of an already saved profile picture, if any.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Picture  string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in SignupInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Profile(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, username string) (*domain.User, error)
	CreateAdmin(ctx context.Context, username, email, password string) (*domain.User, error)
	IsAdmin(ctx context.Context, username string) (bool, error)
}

type userService struct {
	users repository.UserRepository
	cost  int
	now   func() time.Time
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{
		users: users,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
}

func (s *userService) Register(ctx context.Context, in SignupInput) (*domain.User, error) {
	return s.create(ctx, in, domain.RoleUser)
}

func (s *userService) create(ctx context.Context, in SignupInput, role domain.Role) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrInvalidInput)
	}
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("password is required: %w", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("password must be at most 72 bytes: %w", ErrInvalidInput)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Picture:      in.Picture,
		Role:         role,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.AppendLogin(ctx, user.ID, s.now()); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Profile(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.User, 0, len(users))
	for i := range users {
		logins, err := s.users.ListLogins(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		user := sanitizeUser(&users[i])
		user.Logins = logins
		out = append(out, *user)
	}
	return out, nil
}

// DeleteUser removes the user and returns what was removed. Deleting an
// unknown username succeeds and returns nil.
func (s *userService) DeleteUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if _, err := s.users.DeleteByUsername(ctx, username); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// CreateAdmin registers a new administrator, or promotes an existing user
// with the same username.
func (s *userService) CreateAdmin(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	existing, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if err := s.users.SetRole(ctx, username, domain.RoleAdmin); err != nil {
			return nil, err
		}
		existing.Role = domain.RoleAdmin
		return sanitizeUser(existing), nil
	case errors.Is(err, repository.ErrNotFound):
		return s.create(ctx, SignupInput{Username: username, Email: email, Password: password}, domain.RoleAdmin)
	default:
		return nil, err
	}
}

func (s *userService) IsAdmin(ctx context.Context, username string) (bool, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin(), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Picture:   user.Picture,
		Role:      user.Role,
		Logins:    user.Logins,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
