// Package config loads nana's runtime configuration from the environment
// (optionally seeded by a .env file) and the brain tuning from
// <state>/brain.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/nana/internal/brain"
	"github.com/vthunder/nana/internal/logging"
	"github.com/vthunder/nana/internal/profiling"
)

// DefaultLookupURL is the Wikipedia REST summary endpoint; the query is appended.
const DefaultLookupURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// Config holds everything the front ends need to build an agent
type Config struct {
	StatePath   string
	Driver      string // sqlite driver name, see graph.Open
	WebLearning bool
	LookupURL   string
	HTTPAddr    string
	Debug       bool
	Profile     profiling.Level // stage timings in <state>/system/timing.jsonl

	Discord DiscordConfig

	Brain brain.Params
}

// DiscordConfig holds Discord connection settings
type DiscordConfig struct {
	Token     string
	ChannelID string
}

// Load reads .env (if present), the environment and the tuning file.
func Load() (*Config, error) {
	// Load .env file (optional - won't error if missing)
	if err := godotenv.Load(); err != nil {
		logging.Debug("config", "no .env file found, using environment variables")
	} else {
		logging.Info("config", "loaded .env file")
	}

	cfg := &Config{
		StatePath:   stringOr("NANA_STATE_PATH", "state"),
		Driver:      stringOr("NANA_DB_DRIVER", "sqlite3"),
		WebLearning: boolOr("NANA_WEB_LEARNING", true),
		LookupURL:   stringOr("NANA_LOOKUP_URL", DefaultLookupURL),
		HTTPAddr:    stringOr("NANA_HTTP_ADDR", ":8080"),
		Debug:       boolOr("DEBUG", false),
		Discord: DiscordConfig{
			Token:     os.Getenv("DISCORD_TOKEN"),
			ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		},
	}

	profile, err := profiling.ParseLevel(os.Getenv("NANA_PROFILE"))
	if err != nil {
		return nil, fmt.Errorf("NANA_PROFILE: %w", err)
	}
	cfg.Profile = profile

	params, err := LoadParams(filepath.Join(cfg.StatePath, "brain.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.Brain = params

	logging.SetDebug(cfg.Debug)
	return cfg, nil
}

// LoadParams overlays the YAML file at path onto brain.DefaultParams.
// A missing file yields the defaults.
func LoadParams(path string) (brain.Params, error) {
	params := brain.DefaultParams()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return params, nil
	}
	if err != nil {
		return params, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("invalid tuning in %s: %w", path, err)
	}
	if params.Dim != brain.Dim {
		// Stored vectors and the encoder share one dimension.
		return params, fmt.Errorf("invalid tuning in %s: dim must be %d, got %d", path, brain.Dim, params.Dim)
	}

	logging.Info("config", "loaded brain tuning from %s", path)
	return params, nil
}

// SaveParams writes params as YAML (used by `nana state --write-tuning`)
func SaveParams(path string, params brain.Params) error {
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal tuning: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func stringOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func boolOr(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logging.Info("config", "ignoring %s=%q: not a boolean", name, v)
		return def
	}
	return b
}
