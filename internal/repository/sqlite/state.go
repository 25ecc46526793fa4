package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/trading-dashboard/internal/session"
)

var _ session.Store = (*StateStore)(nil)

// StateStore is the durable client key-value store: the dashboard's
// equivalent of browser local storage.
type StateStore struct {
	conn *sql.DB
}

func (s *StateStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM client_state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: reading state %q: %w", key, err)
	}
	return v, true, nil
}

func (s *StateStore) Set(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO client_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing state %q: %w", key, err)
	}
	return nil
}

func (s *StateStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM client_state WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: deleting state keys: %w", err)
	}
	return nil
}
