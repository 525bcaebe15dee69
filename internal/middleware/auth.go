// Package middleware provides HTTP middlewares for bearer authentication,
// request logging, metrics and rate limiting.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/handmind/internal/auth"
	"github.com/atinyakov/handmind/internal/httputil"
	"github.com/atinyakov/handmind/internal/models"
	"go.uber.org/zap"
)

type ctxKey string

const userKey ctxKey = "user"

// Client-facing messages for rejected requests. Verification failures share one
// message so callers cannot tell a bad signature from an expired token.
const (
	msgMissingToken    = "authorization token required"
	msgMalformedHeader = "malformed authorization header"
	msgInvalidToken    = "invalid token"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// UserLookup resolves a user id to its public projection.
type UserLookup interface {
	GetPublicByID(ctx context.Context, id int64) (models.PublicUser, error)
}

// BearerAuth is a middleware that requires a valid "Authorization: Bearer <token>"
// header. The token's user is re-read from users on every request and stored in
// the request context, where handlers retrieve it with UserFromContext.
func BearerAuth(verifier TokenVerifier, users UserLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, msgMissingToken)
				return
			}
			token, ok := parseBearer(header)
			if !ok {
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, msgMalformedHeader)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("token rejected", zap.String("reason", rejectReason(err)), zap.Error(err))
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			user, err := users.GetPublicByID(r.Context(), claims.UserID)
			if errors.Is(err, models.ErrNotFound) {
				logger.Debug("token for unknown user", zap.Int64("user_id", claims.UserID), zap.String("jti", claims.ID))
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}
			if err != nil {
				logger.Error("failed to load token user", zap.Int64("user_id", claims.UserID), zap.Error(err))
				httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseBearer extracts the token from a "Bearer <token>" header value.
// The scheme is matched case-insensitively.
func parseBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return "expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

// UserFromContext returns the identity attached by BearerAuth.
// ok is false when the request did not pass through BearerAuth.
func UserFromContext(ctx context.Context) (models.PublicUser, bool) {
	u, ok := ctx.Value(userKey).(models.PublicUser)
	return u, ok
}
