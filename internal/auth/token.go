package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrEmptySecret is returned when a TokenManager is built without a signing secret.
	ErrEmptySecret = errors.New("token signing secret is empty")
	// ErrMalformed means the token could not be parsed or carries unusable claims.
	ErrMalformed = errors.New("token is malformed")
	// ErrInvalidSignature means the signature does not match the server secret.
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrExpired means the token's expiry has elapsed.
	ErrExpired = errors.New("token is expired")
)

// Claims is the verified content of a session token.
type Claims struct {
	UserID    int64
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a TokenManager.
type Option func(*TokenManager)

// WithClock replaces time.Now as the source of issue and verification time.
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) {
		m.now = now
	}
}

// NewTokenManager creates a TokenManager signing with secret. A non-positive ttl
// selects DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration, opts ...Option) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue signs a token for userID that expires after the manager's TTL.
func (m *TokenManager) Issue(userID int64) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns its claims.
// Failures wrap exactly one of ErrMalformed, ErrInvalidSignature or ErrExpired.
func (m *TokenManager) Verify(tokenString string) (Claims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, fmt.Errorf("%w: %v", ErrExpired, err)
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, fmt.Errorf("%w: bad subject %q", ErrMalformed, claims.Subject)
	}

	out := Claims{UserID: userID, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
