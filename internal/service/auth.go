// Package service provides authentication business logic,
// delegating persistence to a UserRepository.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akovalenko/sessionauth/internal/models"
	"github.com/akovalenko/sessionauth/internal/token"
)

var (
	// ErrUserExists is returned by Register when the username is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned by Login when the username is
	// unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by UserByID when no user has the given ID.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// UserExists returns true if a user with the given username exists.
	UserExists(ctx context.Context, username string) (bool, error)
	// CreateUser stores a new user record.
	CreateUser(ctx context.Context, user models.User) error
	// UserByUsername returns the user with the given username,
	// or sql.ErrNoRows if none exists.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UserByID returns the user with the given ID,
	// or sql.ErrNoRows if none exists.
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// Service implements authentication operations by delegating
// to a UserRepository and minting bearer tokens for valid logins.
type Service struct {
	// repo performs the data-layer operations.
	repo UserRepository
	// secret signs issued tokens.
	secret []byte
	// tokenTTL is the validity duration of issued tokens.
	tokenTTL time.Duration
}

// NewAuthService constructs a new Service using the provided repository,
// token signing secret, and token validity duration.
func NewAuthService(repo UserRepository, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

// Register creates a new user from the registration payload, hashing the
// password with bcrypt. Returns ErrUserExists if the username is taken.
func (s *Service) Register(ctx context.Context, reg models.Registration) error {
	exists, err := s.repo.UserExists(ctx, reg.Username)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if exists {
		return ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     reg.Username,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Login verifies the credentials and returns a freshly minted bearer token.
// An unknown username and a wrong password are indistinguishable to the
// caller: both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	t, err := token.Generate(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return t, nil
}

// UserByID returns the user a validated token belongs to.
// Returns ErrUserNotFound if the user no longer exists.
func (s *Service) UserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// ValidateToken checks a bearer token and returns the user ID it was
// issued for. Used by the HTTP middleware guarding protected routes.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	return token.UserID(tokenString, s.secret)
}
