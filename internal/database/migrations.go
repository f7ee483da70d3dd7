package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered schema history. Entries are append-only;
// editing an applied migration silently diverges existing databases.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_users",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				home_location TEXT NOT NULL DEFAULT '',
				latlong_home_location TEXT NOT NULL DEFAULT '',
				preset_productive_locations TEXT NOT NULL DEFAULT '{}',
				settings TEXT NOT NULL DEFAULT '{}',
				pending_observations TEXT NOT NULL DEFAULT '[]',
				most_productive_weekday_all_time TEXT NOT NULL DEFAULT '{}',
				least_productive_weekday_all_time TEXT NOT NULL DEFAULT '{}',
				most_productive_weekday_last7 TEXT NOT NULL DEFAULT '{}',
				least_productive_weekday_last7 TEXT NOT NULL DEFAULT '{}',
				most_productive_weekday_last30 TEXT NOT NULL DEFAULT '{}',
				least_productive_weekday_last30 TEXT NOT NULL DEFAULT '{}',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
	{
		Version: 2,
		Name:    "create_frequent_locations",
		SQL: `
			CREATE TABLE IF NOT EXISTS frequent_locations (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				latlng TEXT NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				start_time INTEGER NOT NULL,
				end_time INTEGER NOT NULL,
				address_resolved INTEGER NOT NULL DEFAULT 0,
				formatted_address TEXT NOT NULL DEFAULT '',
				place_id TEXT NOT NULL DEFAULT '',
				primary_type TEXT NOT NULL DEFAULT '',
				productivity REAL
			)
		`,
	},
	{
		Version: 3,
		Name:    "index_frequent_locations_user",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_frequent_locations_user
				ON frequent_locations(user_id, position)
		`,
	},
	{
		Version: 4,
		Name:    "index_frequent_locations_latlng",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_frequent_locations_latlng
				ON frequent_locations(latlng)
		`,
	},
}

// Migrate applies all pending migrations in version order.
func Migrate(db *sql.DB) error {
	if err := initMigrationsTable(db); err != nil {
		return err
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		log.Printf("Applied migration %d: %s", m.Version, m.Name)
	}

	return nil
}

// initMigrationsTable creates the migrations tracking table
func initMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// appliedMigrations returns the set of applied migration versions
func appliedMigrations(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
