package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the expert booking service.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(sqlDB); err != nil {
		return nil, err
	}
	return &DB{sqlDB}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Experts
		`CREATE TABLE IF NOT EXISTS experts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			subject TEXT NOT NULL,
			bio TEXT,
			telegram_chat_id INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Weekly availability rules; times are "HH:MM" strings
		`CREATE TABLE IF NOT EXISTS availability_rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			expert_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (expert_id) REFERENCES experts(id)
		)`,

		// Per-date overrides: closed day or special hours
		`CREATE TABLE IF NOT EXISTS availability_overrides (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			expert_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			is_closed BOOLEAN NOT NULL DEFAULT 0,
			start_time TEXT,
			end_time TEXT,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (expert_id, date),
			FOREIGN KEY (expert_id) REFERENCES experts(id)
		)`,

		// Bookings; start/end must exactly match a generated slot
		`CREATE TABLE IF NOT EXISTS expert_bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ref TEXT UNIQUE NOT NULL,
			expert_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			student_name TEXT NOT NULL,
			student_grade TEXT,
			topic TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (expert_id) REFERENCES experts(id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_experts_active ON experts(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_expert_day ON availability_rules(expert_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_overrides_expert_date ON availability_overrides(expert_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_expert_date ON expert_bookings(expert_id, date, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON expert_bookings(status)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
