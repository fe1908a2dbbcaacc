package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
)

// Migration represents a single database migration
// Each migration should have a unique ID and an Up function
// that applies the migration.
type Migration struct {
	ID          int
	Description string
	Up          func(ctx context.Context, tx *sql.Tx) error
}

// migrations are applied in order, each exactly once
var migrations = []Migration{
	{
		ID:          1,
		Description: "create transactions table",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					amount DECIMAL(15,2) NOT NULL,
					payee TEXT NOT NULL,
					upi_id TEXT NOT NULL,
					notes TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL DEFAULT 'Food',
					transaction_date TEXT NOT NULL
				)
			`)
			return err
		},
	},
	{
		ID:          2,
		Description: "index transactions by date and category",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			for _, stmt := range []string{
				"CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(transaction_date)",
				"CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category)",
				"CREATE INDEX IF NOT EXISTS idx_transactions_upi_id ON transactions(upi_id)",
			} {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// ApplyMigrations applies all pending migrations to the database.
func ApplyMigrations(ctx context.Context, db *sql.DB, logger *log.Logger) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		logger.Info("Applying migration", "id", m.ID, "description", m.Description)
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.ID, err)
		}
	}

	return nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

func applyMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.Up(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO migrations (id) VALUES (?)`, m.ID); err != nil {
		return err
	}
	return tx.Commit()
}
