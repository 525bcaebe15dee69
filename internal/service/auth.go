// Package service holds the business rules of the API: registration and login,
// and the module catalogue. Persistence and crypto are reached through small
// interfaces so the rules can be tested with in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atinyakov/handmind/internal/models"
	"go.uber.org/zap"
)

// UserStore defines the persistence operations required by AuthService.
type UserStore interface {
	// EmailExists reports whether a user with the given email exists.
	EmailExists(ctx context.Context, email string) (bool, error)
	// GetByEmail loads the full user record. Returns models.ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (models.User, error)
	// Create inserts a user. Returns models.ErrDuplicateEmail on a unique violation.
	Create(ctx context.Context, email, passwordHash string, name *string) (models.User, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6,bcryptlen"`
	Name     *string `json:"name" validate:"omitnil,max=100"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is the outcome of a successful register or login.
type Session struct {
	Token string
	User  models.PublicUser
}

// AuthService implements registration and login.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	logger *zap.Logger

	// decoy is compared against when the email is unknown, so both login
	// failures cost one hash comparison.
	decoyOnce sync.Once
	decoy     string
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// Register validates in, stores a new user with a hashed password and returns
// a session for it. A taken email yields ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if err := validateStruct(in); err != nil {
		return Session{}, err
	}
	if in.Name != nil && *in.Name == "" {
		in.Name = nil
	}

	exists, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return Session{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return Session{}, ErrEmailTaken
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, err
	}

	user, err := s.users.Create(ctx, in.Email, digest, in.Name)
	if errors.Is(err, models.ErrDuplicateEmail) {
		// Lost a race with a concurrent registration for the same email.
		return Session{}, ErrEmailTaken
	}
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return Session{Token: token, User: user.Public()}, nil
}

// Login checks the credentials in in and returns a fresh session. An unknown
// email and a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	if err := validateStruct(in); err != nil {
		return Session{}, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, models.ErrNotFound) {
		s.hasher.Verify(in.Password, s.decoyDigest())
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.logger.Debug("login rejected", zap.Int64("user_id", user.ID))
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user.Public()}, nil
}

func (s *AuthService) decoyDigest() string {
	s.decoyOnce.Do(func() {
		digest, err := s.hasher.Hash("decoy-password")
		if err != nil {
			s.logger.Warn("failed to prepare decoy digest", zap.Error(err))
			return
		}
		s.decoy = digest
	})
	return s.decoy
}
