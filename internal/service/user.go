package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/travelwallet/travelwallet/internal/auth"
	"github.com/travelwallet/travelwallet/internal/model"
	"github.com/travelwallet/travelwallet/internal/store"
)

// User errors.
var (
	ErrEmailExists        = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserService handles registration, login and user search.
type UserService struct {
	users  store.UserStore
	hasher *auth.Hasher
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a new UserService. A nil hasher uses auth.DefaultParams.
func NewUserService(users store.UserStore, hasher *auth.Hasher, logger *slog.Logger) *UserService {
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultParams)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:  users,
		hasher: hasher,
		logger: logger.With("component", "user_service"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	UserName string
	Email    string
	Password string
	Profile  string
}

// Register creates an account. Each email can be registered exactly once.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if strings.TrimSpace(input.UserName) == "" {
		return nil, fmt.Errorf("%w: userName is required", model.ErrValidation)
	}
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, fmt.Errorf("%w: password is required", model.ErrValidation)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           newID(),
		UserName:     input.UserName,
		Email:        input.Email,
		PasswordHash: hash,
		Profile:      input.Profile,
		CreatedAt:    s.now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and returns the account.
// An unknown email and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SearchUsers returns users whose name contains query, ignoring case.
// A blank query returns an empty list.
func (s *UserService) SearchUsers(ctx context.Context, query string) ([]*model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.User{}, nil
	}

	users, err := s.users.SearchUsersByName(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}
