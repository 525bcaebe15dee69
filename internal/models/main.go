// Package models defines the core data structures for users and learning modules.
package models

import "time"

// User represents an account stored in the credential store.
type User struct {
	// ID is the surrogate key of the user.
	ID int64
	// Email is the unique login of the user, compared case-sensitively.
	Email string
	// PasswordHash is the bcrypt digest of the user's password.
	PasswordHash string
	// Name is the optional display label.
	Name *string
	// CreatedAt is the registration time.
	CreatedAt time.Time
}

// Public returns the projection of u that is safe to send to clients.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

// PublicUser is the client-facing identity of a user. It never carries the password hash.
type PublicUser struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Module is a learning unit exposed by the CRUD API.
type Module struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       int       `json:"level"`
	ImageURL    string    `json:"imageUrl"`
	IsLocked    bool      `json:"isLocked"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// ModulePatch holds the fields of a partial module update. Nil fields are left unchanged.
type ModulePatch struct {
	Title       *string
	Description *string
	Level       *int
	ImageURL    *string
	IsLocked    *bool
}

// Empty reports whether the patch changes nothing.
func (p ModulePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Level == nil && p.ImageURL == nil && p.IsLocked == nil
}
