package graph

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/vthunder/nana/internal/logging"
)

// Supported database/sql driver names
const (
	DriverCgo  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// DB wraps the SQLite database holding the concept graph, the episode log
// and the agent's mood/identity state.
type DB struct {
	db     *sql.DB
	path   string
	driver string
}

// Open opens or creates the memory database under statePath.
// An empty driver selects DriverCgo.
func Open(statePath, driver string) (*DB, error) {
	if driver == "" {
		driver = DriverCgo
	}
	if driver != DriverCgo && driver != DriverPure {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}

	dbPath := filepath.Join(statePath, "system", "nana.db")

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer; database/sql serializes callers on the single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	g := &DB{db: db, path: dbPath, driver: driver}

	if err := g.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	logging.Debug("graph", "opened %s (driver=%s)", dbPath, driver)
	return g, nil
}

// Close closes the database connection
func (g *DB) Close() error {
	return g.db.Close()
}

// Path returns the database file path
func (g *DB) Path() string {
	return g.path
}

// migrate creates the schema and applies incremental migrations
func (g *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Concepts: one row per token ever seen, id = creation index
	CREATE TABLE IF NOT EXISTS neurons (
		id INTEGER PRIMARY KEY,
		token TEXT NOT NULL UNIQUE,
		strength REAL NOT NULL,
		valence REAL NOT NULL DEFAULT 0,
		vector TEXT NOT NULL,
		hits INTEGER NOT NULL DEFAULT 0
	);

	-- Directed association weights; both directions are stored
	CREATE TABLE IF NOT EXISTS links (
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		weight REAL NOT NULL,
		PRIMARY KEY (from_id, to_id),
		FOREIGN KEY (from_id) REFERENCES neurons(id),
		FOREIGN KEY (to_id) REFERENCES neurons(id)
	);

	CREATE INDEX IF NOT EXISTS idx_links_to ON links(to_id);

	-- Interaction log
	CREATE TABLE IF NOT EXISTS episodes (
		id TEXT PRIMARY KEY,
		ts INTEGER NOT NULL,
		user_text TEXT NOT NULL,
		reply TEXT NOT NULL,
		confidence REAL NOT NULL,
		novelty REAL NOT NULL,
		activated TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_episodes_ts ON episodes(ts);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	if _, err := g.db.Exec(schema); err != nil {
		return err
	}
	return g.runMigrations()
}

// runMigrations applies incremental schema changes
func (g *DB) runMigrations() error {
	var version int
	if err := g.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		version = 1
	}

	// Migration v2: key/value agent state (mood, identity)
	if version < 2 {
		if _, err := g.db.Exec(`
			CREATE TABLE IF NOT EXISTS agent_state (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at INTEGER NOT NULL
			)`); err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		if _, err := g.db.Exec("INSERT INTO schema_version (version) VALUES (2)"); err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logging.Info("graph", "applied migration v2 (agent_state)")
	}

	return nil
}

// Stats returns row counts per table
func (g *DB) Stats() (map[string]int, error) {
	stats := make(map[string]int)

	tables := []string{"neurons", "links", "episodes", "agent_state"}
	for _, table := range tables {
		var count int
		err := g.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
		if err != nil {
			return nil, err
		}
		stats[table] = count
	}

	return stats, nil
}

// Clear removes all data (for testing/reset)
func (g *DB) Clear() error {
	tables := []string{"links", "neurons", "episodes", "agent_state"}

	for _, table := range tables {
		if _, err := g.db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return nil
}
