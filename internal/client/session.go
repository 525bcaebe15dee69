package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atinyakov/handmind/internal/models"
)

// Session is the persisted login state of the shell.
type Session struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// SessionStore keeps a Session in a JSON file readable only by its owner.
type SessionStore struct {
	Path string
}

// DefaultSessionPath returns ~/.handmind/session.json, or session.json in the
// working directory when the home directory is unknown.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".handmind", "session.json")
}

// Load reads the stored session. ok is false when there is none.
func (s *SessionStore) Load() (sess Session, ok bool, err error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, fmt.Errorf("corrupt session file %s: %w", s.Path, err)
	}
	return sess, sess.Token != "", nil
}

// Save writes sess, creating the parent directory if needed.
func (s *SessionStore) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

// Clear deletes the stored session. Logging out is purely local: the token
// stays valid on the server until it expires.
func (s *SessionStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
