package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/atinyakov/handmind/internal/httputil"
	"github.com/atinyakov/handmind/internal/models"
	"github.com/atinyakov/handmind/internal/service"
)

// fakeAPI is a tiny stand-in for the server with one account and a module map.
type fakeAPI struct {
	mu       sync.Mutex
	modules  map[int64]models.Module
	nextID   int64
	lastAuth string
	lastReq  string
	searches []string
}

const fakeToken = "tok-123"

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{modules: map[int64]models.Module{1: {ID: 1, Title: "Alphabet", Description: "Letters", Level: 1, ImageURL: "/a.png", IsLocked: true}}, nextID: 2}

	writeJSON := httputil.WriteJSON
	authed := func(w http.ResponseWriter, r *http.Request) bool {
		f.mu.Lock()
		f.lastAuth = r.Header.Get("Authorization")
		f.lastReq = r.Header.Get("X-Request-Id")
		f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+fakeToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return false
		}
		return true
	}
	user := models.PublicUser{ID: 1, Email: "ana@example.com"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var in service.RegisterInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if len(in.Password) < 6 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload", "issues": []service.Issue{{Field: "password", Message: "must be at least 6 characters"}}})
			return
		}
		u := models.PublicUser{ID: 1, Email: in.Email, Name: in.Name}
		writeJSON(w, http.StatusCreated, AuthResponse{Message: "user registered", Token: fakeToken, User: u})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in service.LoginInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Email != user.Email || in.Password != "secret1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, AuthResponse{Message: "login successful", Token: fakeToken, User: user})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if authed(w, r) {
			writeJSON(w, http.StatusOK, AuthResponse{Message: "authenticated", User: user})
		}
	})
	mux.HandleFunc("GET /api/modules", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		search := r.URL.Query().Get("search")
		f.searches = append(f.searches, search)
		out := []models.Module{}
		for id := int64(1); id < f.nextID; id++ {
			if m, ok := f.modules[id]; ok && strings.Contains(m.Title, search) {
				out = append(out, m)
			}
		}
		writeJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /api/modules/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.mu.Lock()
		m, ok := f.modules[id]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "module not found"})
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
	mux.HandleFunc("POST /api/modules", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}
		var in service.CreateModuleInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		m := models.Module{ID: f.nextID, Title: in.Title, Description: in.Description, Level: in.Level, ImageURL: in.ImageURL, IsLocked: in.IsLocked == nil || *in.IsLocked}
		f.modules[m.ID] = m
		f.nextID++
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, m)
	})
	mux.HandleFunc("PUT /api/modules/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var in service.UpdateModuleInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		m, ok := f.modules[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "module not found"})
			return
		}
		if in.Title != nil {
			m.Title = *in.Title
		}
		if in.Level != nil {
			m.Level = *in.Level
		}
		if in.IsLocked != nil {
			m.IsLocked = *in.IsLocked
		}
		f.modules[id] = m
		writeJSON(w, http.StatusOK, m)
	})
	mux.HandleFunc("DELETE /api/modules/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authed(w, r) {
			return
		}
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.modules[id]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "module not found"})
			return
		}
		delete(f.modules, id)
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}
