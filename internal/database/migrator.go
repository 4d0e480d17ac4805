package database

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/kdimtricp/hoverlabel/internal/logging"
)

type Migration struct {
	Version string
	Name    string
	SQL     string
}

var migrations = []Migration{
	{
		Version: "001",
		Name:    "create_feedback",
		SQL: `
		CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			image_url TEXT NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			vote TEXT NOT NULL CHECK (vote IN ('correct', 'incorrect')),
			created_at DATETIME NOT NULL
		);`,
	},
	{
		Version: "002",
		Name:    "index_feedback_created_at",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback (created_at DESC);`,
	},
}

// Migrations returns the schema migrations in version order.
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

type Migrator struct {
	db *sql.DB
}

func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Initialize creates the migrations tracking table if it doesn't exist
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns a list of already applied migration versions
func (m *Migrator) GetAppliedMigrations() (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ApplyMigration runs a single migration
func (m *Migrator) ApplyMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", migration.Name, err)
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version) VALUES (?)",
		migration.Version,
	); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", migration.Name, err)
	}

	logging.Info("applied migration", "version", migration.Version, "name", migration.Name)
	return nil
}

// Run executes all pending migrations in version order
func (m *Migrator) Run(pending []Migration) error {
	if err := m.Initialize(); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return err
	}

	sorted := make([]Migration, len(pending))
	copy(sorted, pending)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	count := 0
	for _, migration := range sorted {
		if applied[migration.Version] {
			continue
		}

		if err := m.ApplyMigration(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		count++
	}

	if count == 0 {
		logging.Debug("no pending migrations")
	} else {
		logging.Info("migrations complete", "applied", count)
	}

	return nil
}
