package main

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection. Only player-agnostic forge
// templates and server settings live here; match results are never
// persisted.
type DB struct {
	conn *sql.DB
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1) // sqlite: single writer

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS weapon_templates (
			prompt_key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			stats TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveTemplate upserts a cached weapon template
func (db *DB) SaveTemplate(key string, tmpl forgeTemplate) error {
	stats, err := json.Marshal(tmpl.Stats)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`
		INSERT INTO weapon_templates (prompt_key, name, category, stats, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(prompt_key) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			stats = excluded.stats`,
		key, tmpl.Name, tmpl.Category, string(stats), time.Now().UTC())
	return err
}

// LoadTemplates returns every persisted template keyed by prompt hash
func (db *DB) LoadTemplates() (map[string]forgeTemplate, error) {
	rows, err := db.conn.Query(`SELECT prompt_key, name, category, stats FROM weapon_templates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]forgeTemplate)
	for rows.Next() {
		var key, name, category, stats string
		if err := rows.Scan(&key, &name, &category, &stats); err != nil {
			return nil, err
		}
		var s WeaponStats
		if err := json.Unmarshal([]byte(stats), &s); err != nil {
			continue // skip rows written by an incompatible version
		}
		out[key] = forgeTemplate{Name: name, Category: category, Stats: s}
	}
	return out, rows.Err()
}

// GetSetting returns a setting value, or "" when missing
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting upserts a setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
