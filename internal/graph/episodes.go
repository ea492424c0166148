package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// AppendEpisode logs an interaction. ID and Timestamp are filled in when empty.
// Scores are rounded to three decimals, activations to the first 8.
func (g *DB) AppendEpisode(ep *Episode) error {
	if ep.ID == "" {
		ep.ID = uuid.NewString()
	}
	if ep.Timestamp.IsZero() {
		ep.Timestamp = time.Now()
	}
	if len(ep.Activated) > 8 {
		ep.Activated = ep.Activated[:8]
	}
	ep.Confidence = round3(ep.Confidence)
	ep.Novelty = round3(ep.Novelty)

	activated, err := json.Marshal(ep.Activated)
	if err != nil {
		return fmt.Errorf("failed to marshal activations: %w", err)
	}

	_, err = g.db.Exec(`
		INSERT INTO episodes (id, ts, user_text, reply, confidence, novelty, activated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ep.ID, ep.Timestamp.Unix(), ep.User, ep.Reply, ep.Confidence, ep.Novelty, string(activated))
	if err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}
	return nil
}

// RecentEpisodes returns up to limit episodes, newest first
func (g *DB) RecentEpisodes(limit int) ([]*Episode, error) {
	rows, err := g.db.Query(`
		SELECT id, ts, user_text, reply, confidence, novelty, COALESCE(activated, '')
		FROM episodes
		ORDER BY ts DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var result []*Episode
	for rows.Next() {
		var ep Episode
		var ts int64
		var activated string
		if err := rows.Scan(&ep.ID, &ts, &ep.User, &ep.Reply, &ep.Confidence, &ep.Novelty, &activated); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		ep.Timestamp = time.Unix(ts, 0)
		if activated != "" {
			if err := json.Unmarshal([]byte(activated), &ep.Activated); err != nil {
				return nil, fmt.Errorf("episode %s: bad activations: %w", ep.ID, err)
			}
		}
		result = append(result, &ep)
	}
	return result, rows.Err()
}

// CountEpisodes returns the number of logged interactions
func (g *DB) CountEpisodes() (int, error) {
	var count int
	err := g.db.QueryRow(`SELECT COUNT(*) FROM episodes`).Scan(&count)
	return count, err
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
