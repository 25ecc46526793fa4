// Package sqlite implements the repository interfaces and the durable client
// state store on top of SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so both binaries (the dashboard CLI
// and the development backend) cross-compile without a C toolchain.
//
// ONE SCHEMA, TWO USERS:
// The CLI opens its own file (STATE_PATH) and only touches client_state; the
// backend opens DB_PATH and uses the remaining tables. Both run the same
// idempotent migrations so either file can be inspected with the sqlite3 shell.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out per-table repositories.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database lives and dies with a single connection.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. The backend health check uses it.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Users returns the users repository.
func (db *DB) Users() *UserDB { return &UserDB{conn: db.conn} }

// Wallets returns the wallet repository.
func (db *DB) Wallets() *WalletDB { return &WalletDB{conn: db.conn} }

// Todos returns the todo repository.
func (db *DB) Todos() *TodoDB { return &TodoDB{conn: db.conn} }

// IPs returns the sign-up address log repository.
func (db *DB) IPs() *IPDB { return &IPDB{conn: db.conn} }

// State returns the client key-value store backing the session.
func (db *DB) State() *StateStore { return &StateStore{conn: db.conn} }

func (db *DB) migrate() error {
	statements := []struct {
		name string
		sql  string
	}{
		{"client_state", `
			CREATE TABLE IF NOT EXISTS client_state (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);`},
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id               TEXT PRIMARY KEY,
				email            TEXT NOT NULL UNIQUE,
				password_hash    TEXT NOT NULL,
				display_name     TEXT NOT NULL DEFAULT '',
				phone_number     TEXT NOT NULL DEFAULT '',
				role             TEXT NOT NULL DEFAULT 'user',
				is_active        INTEGER NOT NULL DEFAULT 1,
				can_access_todos INTEGER NOT NULL DEFAULT 0,
				ip_address       TEXT NOT NULL DEFAULT '',
				created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);`},
		{"wallet_balances", `
			CREATE TABLE IF NOT EXISTS wallet_balances (
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				symbol  TEXT NOT NULL,
				amount  TEXT NOT NULL,
				PRIMARY KEY (user_id, symbol)
			);`},
		{"transactions", `
			CREATE TABLE IF NOT EXISTS transactions (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				symbol     TEXT NOT NULL,
				type       TEXT NOT NULL,
				amount     TEXT NOT NULL,
				price      TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at);`},
		{"todos", `
			CREATE TABLE IF NOT EXISTS todos (
				id           TEXT PRIMARY KEY,
				date         TEXT NOT NULL,
				task         TEXT NOT NULL,
				assigned_to  TEXT NOT NULL DEFAULT '[]',
				completed_by TEXT NOT NULL DEFAULT '[]',
				created_by   TEXT NOT NULL DEFAULT '',
				created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_todos_date ON todos(date);`},
		{"ip_addresses", `
			CREATE TABLE IF NOT EXISTS ip_addresses (
				id         TEXT PRIMARY KEY,
				ip_address TEXT NOT NULL,
				user_agent TEXT NOT NULL DEFAULT '',
				user_id    TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
	}

	for _, st := range statements {
		if _, err := db.conn.Exec(st.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", st.name, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// clampLimit applies the default page size used by every List method.
func clampLimit(limit int) int {
	const (
		defaultLimit = 50
		maxLimit     = 500
	)
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}
