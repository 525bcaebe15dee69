package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/handmind/internal/models"
)

const moduleColumns = `id, title, description, level, image_url, is_locked, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresModuleRepository implements module CRUD against the modules table.
type PostgresModuleRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresModuleRepository creates a new PostgresModuleRepository using the provided *sql.DB.
func NewPostgresModuleRepository(db *sql.DB) *PostgresModuleRepository {
	return &PostgresModuleRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModule(row rowScanner) (models.Module, error) {
	var m models.Module
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Level, &m.ImageURL, &m.IsLocked, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// List returns modules ordered by level, then id. A non-empty search keeps only
// modules whose title or description contains it, ignoring case.
func (r *PostgresModuleRepository) List(ctx context.Context, search string) ([]models.Module, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+moduleColumns+` FROM modules
		WHERE $1 = '' OR title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY level ASC, id ASC
	`, likeEscaper.Replace(search))
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	modules := make([]models.Module, 0)
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// GetByID fetches a single module. Returns models.ErrNotFound when absent.
func (r *PostgresModuleRepository) GetByID(ctx context.Context, id int64) (models.Module, error) {
	m, err := scanModule(r.DB.QueryRowContext(ctx, `
		SELECT `+moduleColumns+` FROM modules WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Module{}, models.ErrNotFound
	}
	if err != nil {
		return models.Module{}, fmt.Errorf("get module: %w", err)
	}
	return m, nil
}

// Create inserts m and returns the stored row.
func (r *PostgresModuleRepository) Create(ctx context.Context, m models.Module) (models.Module, error) {
	created, err := scanModule(r.DB.QueryRowContext(ctx, `
		INSERT INTO modules (title, description, level, image_url, is_locked)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+moduleColumns,
		m.Title, m.Description, m.Level, m.ImageURL, m.IsLocked))
	if err != nil {
		return models.Module{}, fmt.Errorf("create module: %w", err)
	}
	return created, nil
}

// Update applies the non-nil fields of patch in a single statement and returns
// the stored row. Returns models.ErrNotFound when the module does not exist.
func (r *PostgresModuleRepository) Update(ctx context.Context, id int64, patch models.ModulePatch) (models.Module, error) {
	updated, err := scanModule(r.DB.QueryRowContext(ctx, `
		UPDATE modules SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			level       = COALESCE($4, level),
			image_url   = COALESCE($5, image_url),
			is_locked   = COALESCE($6, is_locked),
			updated_at  = now()
		WHERE id = $1
		RETURNING `+moduleColumns,
		id, patch.Title, patch.Description, patch.Level, patch.ImageURL, patch.IsLocked))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Module{}, models.ErrNotFound
	}
	if err != nil {
		return models.Module{}, fmt.Errorf("update module: %w", err)
	}
	return updated, nil
}

// Delete removes a module. Returns models.ErrNotFound when nothing was deleted.
func (r *PostgresModuleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM modules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
