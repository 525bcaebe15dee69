// Package repository provides PostgreSQL persistence for users and learning modules.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/handmind/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresUserRepository is the credential store backed by the users table.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// EmailExists checks whether a user with the specified email exists.
func (r *PostgresUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("EmailExists: %w", err)
	}
	return exists, nil
}

// GetByEmail loads the full user record, including the password hash.
// Returns models.ErrNotFound when no user has that email.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var (
		u    models.User
		name sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, created_at FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("GetByEmail: %w", err)
	}
	u.Name = nullableString(name)
	return u, nil
}

// GetPublicByID loads the client-facing projection of a user. The password hash is not selected.
// Returns models.ErrNotFound when the user does not exist.
func (r *PostgresUserRepository) GetPublicByID(ctx context.Context, id int64) (models.PublicUser, error) {
	var (
		u    models.PublicUser
		name sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, name FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PublicUser{}, models.ErrNotFound
	}
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("GetPublicByID: %w", err)
	}
	u.Name = nullableString(name)
	return u, nil
}

// Create inserts a new user. A unique violation on email is reported as
// models.ErrDuplicateEmail, which makes the constraint the final arbiter of
// concurrent registrations.
func (r *PostgresUserRepository) Create(ctx context.Context, email, passwordHash string, name *string) (models.User, error) {
	u := models.User{Email: email, PasswordHash: passwordHash, Name: name}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, name) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, email, passwordHash, name).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.User{}, models.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
