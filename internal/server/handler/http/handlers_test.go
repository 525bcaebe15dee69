package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/atinyakov/handmind/internal/models"
	handler "github.com/atinyakov/handmind/internal/server/handler/http"
	"github.com/atinyakov/handmind/internal/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// fakeAuthService returns preconfigured results.
type fakeAuthService struct {
	sess service.Session
	err  error
}

func (f *fakeAuthService) Register(ctx context.Context, in service.RegisterInput) (service.Session, error) {
	return f.sess, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, in service.LoginInput) (service.Session, error) {
	return f.sess, f.err
}

func TestAuthHandler_InternalErrorIsOpaque(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := handler.NewAuthHandler(&fakeAuthService{err: errors.New("pq: connection refused to 10.0.0.5")}, zap.New(core))

	for name, fn := range map[string]http.HandlerFunc{"register": h.Register, "login": h.Login} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"secret1"}`))
			fn(rec, req)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
		})
	}
	assert.Equal(t, 2, logs.Len(), "internal errors are logged server-side")
}

func TestAuthHandler_MeWithoutMiddleware(t *testing.T) {
	h := handler.NewAuthHandler(&fakeAuthService{}, nil)
	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// failingModules fails every call.
type failingModules struct{}

func (failingModules) List(ctx context.Context, s string) ([]models.Module, error) {
	return nil, errors.New("boom")
}
func (failingModules) Get(ctx context.Context, id int64) (models.Module, error) {
	return models.Module{}, errors.New("boom")
}
func (failingModules) Create(ctx context.Context, in service.CreateModuleInput) (models.Module, error) {
	return models.Module{}, errors.New("boom")
}
func (failingModules) Update(ctx context.Context, id int64, in service.UpdateModuleInput) (models.Module, error) {
	return models.Module{}, errors.New("boom")
}
func (failingModules) Delete(ctx context.Context, id int64) error { return errors.New("boom") }

func TestModuleHandler_StoreFailure(t *testing.T) {
	h := handler.NewModuleHandler(failingModules{}, nil)
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/modules", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
