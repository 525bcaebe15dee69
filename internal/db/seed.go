package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/handmind/internal/models"
	"go.uber.org/zap"
)

// StarterModules is the catalogue inserted by Seed.
var StarterModules = []models.Module{
	{Title: "Manual Alphabet", Description: "Learn the sign for every letter of the alphabet.", Level: 1, ImageURL: "/images/alphabet.jpg", IsLocked: false},
	{Title: "Greetings", Description: "Say 'Hi', 'How are you?', 'Good morning' and more.", Level: 2, ImageURL: "/images/greetings.jpg", IsLocked: false},
	{Title: "Numbers", Description: "Master signing the numbers from 0 to 100.", Level: 3, ImageURL: "/images/numbers.jpg", IsLocked: true},
	{Title: "Colors and Their Signs", Description: "Learn to sign the primary and secondary colors.", Level: 4, ImageURL: "/images/colors.jpg", IsLocked: true},
	{Title: "Family Members", Description: "Sign 'mother', 'father', 'brother', 'daughter' and other relatives.", Level: 5, ImageURL: "/images/family.jpg", IsLocked: true},
}

// Seed inserts StarterModules when the modules table is empty and returns the
// number of rows written. A populated table is left untouched.
func Seed(ctx context.Context, db *sql.DB, log *zap.Logger) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM modules`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count modules: %w", err)
	}
	if count > 0 {
		log.Info("skipping seed, modules already present", zap.Int("count", count))
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range StarterModules {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO modules (title, description, level, image_url, is_locked)
			VALUES ($1, $2, $3, $4, $5)
		`, m.Title, m.Description, m.Level, m.ImageURL, m.IsLocked)
		if err != nil {
			return 0, fmt.Errorf("insert module %q: %w", m.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	log.Info("seeded starter modules", zap.Int("count", len(StarterModules)))
	return len(StarterModules), nil
}
