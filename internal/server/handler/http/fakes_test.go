package http_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/handmind/internal/models"
)

// memUsers is an in-memory credential store enforcing unique emails.
type memUsers struct {
	mu    sync.Mutex
	byID  map[int64]models.User
	maxID int64
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]models.User{}}
}

func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (m *memUsers) GetPublicByID(ctx context.Context, id int64) (models.PublicUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.PublicUser{}, models.ErrNotFound
	}
	return u.Public(), nil
}

func (m *memUsers) Create(ctx context.Context, email, hash string, name *string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return models.User{}, models.ErrDuplicateEmail
		}
	}
	m.maxID++
	u := models.User{ID: m.maxID, Email: email, PasswordHash: hash, Name: name, CreatedAt: time.Now()}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

// memModules is an in-memory module store.
type memModules struct {
	mu    sync.Mutex
	byID  map[int64]models.Module
	maxID int64
}

func newMemModules() *memModules {
	return &memModules{byID: map[int64]models.Module{}}
}

func (m *memModules) List(ctx context.Context, search string) ([]models.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Module, 0, len(m.byID))
	needle := strings.ToLower(search)
	for _, mod := range m.byID {
		if needle == "" || strings.Contains(strings.ToLower(mod.Title), needle) || strings.Contains(strings.ToLower(mod.Description), needle) {
			out = append(out, mod)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memModules) GetByID(ctx context.Context, id int64) (models.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.byID[id]
	if !ok {
		return models.Module{}, models.ErrNotFound
	}
	return mod, nil
}

func (m *memModules) Create(ctx context.Context, mod models.Module) (models.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxID++
	mod.ID = m.maxID
	m.byID[mod.ID] = mod
	return mod, nil
}

func (m *memModules) Update(ctx context.Context, id int64, p models.ModulePatch) (models.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.byID[id]
	if !ok {
		return models.Module{}, models.ErrNotFound
	}
	if p.Title != nil {
		mod.Title = *p.Title
	}
	if p.Description != nil {
		mod.Description = *p.Description
	}
	if p.Level != nil {
		mod.Level = *p.Level
	}
	if p.ImageURL != nil {
		mod.ImageURL = *p.ImageURL
	}
	if p.IsLocked != nil {
		mod.IsLocked = *p.IsLocked
	}
	m.byID[id] = mod
	return mod, nil
}

func (m *memModules) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type fakePinger struct {
	err error
}

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }
