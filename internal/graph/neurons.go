package graph

import (
	"encoding/json"
	"fmt"

	"github.com/vthunder/nana/internal/brain"
	"github.com/vthunder/nana/internal/logging"
)

// LoadStore rebuilds the concept store from the database. Every stored
// vector must have length dim.
func (g *DB) LoadStore(dim int) (*brain.Store, error) {
	store := brain.NewStore(dim)

	rows, err := g.db.Query(`SELECT id, token, strength, valence, vector, hits FROM neurons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query neurons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n brain.Neuron
		var vecJSON string
		if err := rows.Scan(&n.ID, &n.Token, &n.Strength, &n.Valence, &vecJSON, &n.Hits); err != nil {
			return nil, fmt.Errorf("failed to scan neuron: %w", err)
		}
		if err := json.Unmarshal([]byte(vecJSON), &n.Vector); err != nil {
			return nil, fmt.Errorf("neuron %q: bad vector: %w", n.Token, err)
		}
		if err := store.Put(&n); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	linkRows, err := g.db.Query(`SELECT from_id, to_id, weight FROM links`)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var from, to int
		var w float64
		if err := linkRows.Scan(&from, &to, &w); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		src := store.ByID(from)
		if src == nil || store.ByID(to) == nil {
			return nil, fmt.Errorf("link %d->%d references a missing neuron", from, to)
		}
		src.Links[to] = w
	}
	if err := linkRows.Err(); err != nil {
		return nil, err
	}

	logging.Info("graph", "loaded %d neurons, %d links", store.Len(), store.LinkCount())
	return store, nil
}

// SaveStore writes every neuron and link of the store in one transaction.
// Rows are upserted; nothing is deleted since the store only grows.
func (g *DB) SaveStore(store *brain.Store) error {
	tx, err := g.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	neuronStmt, err := tx.Prepare(`
		INSERT INTO neurons (id, token, strength, valence, vector, hits)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			strength = excluded.strength,
			valence = excluded.valence,
			vector = excluded.vector,
			hits = excluded.hits
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare neuron upsert: %w", err)
	}
	defer neuronStmt.Close()

	linkStmt, err := tx.Prepare(`
		INSERT INTO links (from_id, to_id, weight) VALUES (?, ?, ?)
		ON CONFLICT(from_id, to_id) DO UPDATE SET weight = excluded.weight
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare link upsert: %w", err)
	}
	defer linkStmt.Close()

	var saveErr error
	store.Each(func(n *brain.Neuron) {
		if saveErr != nil {
			return
		}
		vec, err := json.Marshal(n.Vector)
		if err != nil {
			saveErr = fmt.Errorf("neuron %q: %w", n.Token, err)
			return
		}
		if _, err := neuronStmt.Exec(n.ID, n.Token, n.Strength, n.Valence, string(vec), n.Hits); err != nil {
			saveErr = fmt.Errorf("failed to save neuron %q: %w", n.Token, err)
		}
	})
	if saveErr != nil {
		return saveErr
	}

	// Links go second so foreign keys resolve
	store.Each(func(n *brain.Neuron) {
		if saveErr != nil {
			return
		}
		for to, w := range n.Links {
			if _, err := linkStmt.Exec(n.ID, to, w); err != nil {
				saveErr = fmt.Errorf("failed to save link %d->%d: %w", n.ID, to, err)
				return
			}
		}
	})
	if saveErr != nil {
		return saveErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logging.Debug("graph", "saved %d neurons", store.Len())
	return nil
}

// TopNeurons returns the strongest stored concepts with their link counts
func (g *DB) TopNeurons(limit int) ([]NeuronSummary, error) {
	rows, err := g.db.Query(`
		SELECT n.token, n.strength, n.hits, COUNT(l.to_id)
		FROM neurons n
		LEFT JOIN links l ON l.from_id = n.id
		GROUP BY n.id
		ORDER BY n.strength DESC, n.id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top neurons: %w", err)
	}
	defer rows.Close()

	var out []NeuronSummary
	for rows.Next() {
		var s NeuronSummary
		if err := rows.Scan(&s.Token, &s.Strength, &s.Hits, &s.Links); err != nil {
			return nil, fmt.Errorf("failed to scan neuron: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
