// Package http provides the HTTP handlers and router of the HandMind API.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/handmind/internal/httputil"
	"github.com/atinyakov/handmind/internal/middleware"
	"github.com/atinyakov/handmind/internal/models"
	"github.com/atinyakov/handmind/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the authentication operations required by AuthHandler.
type AuthService interface {
	// Register creates a user and returns a session for it.
	Register(ctx context.Context, in service.RegisterInput) (service.Session, error)
	// Login checks credentials and returns a new session.
	Login(ctx context.Context, in service.LoginInput) (service.Session, error)
}

// AuthHandler handles registration, login and identity requests.
type AuthHandler struct {
	AuthService AuthService
	Logger      *zap.Logger
}

// NewAuthHandler creates an AuthHandler. A nil logger discards output.
func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{AuthService: svc, Logger: logger}
}

type sessionResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

type meResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

// Register handles POST /api/auth/register.
// It expects {"email", "password", "name"?} and responds 201 with a token and
// the public user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	sess, err := h.AuthService.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{Message: "user registered", Token: sess.Token, User: sess.User})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	sess, err := h.AuthService.Login(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{Message: "login successful", Token: sess.Token, User: sess.User})
}

// Me handles GET /api/auth/me. It must run behind middleware.BearerAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeServiceError(w, h.Logger, service.ErrUnauthenticated)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, meResponse{Message: "authenticated", User: user})
}
