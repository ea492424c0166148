package graph

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GetState decodes the JSON value stored under key into dst.
// It reports false, with dst untouched, when the key is absent.
func (g *DB) GetState(key string, dst any) (bool, error) {
	var raw string
	err := g.db.QueryRow(`SELECT value FROM agent_state WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to decode state %q: %w", key, err)
	}
	return true, nil
}

// PutState stores v as JSON under key, replacing any previous value
func (g *DB) PutState(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode state %q: %w", key, err)
	}
	_, err = g.db.Exec(`
		INSERT INTO agent_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}
