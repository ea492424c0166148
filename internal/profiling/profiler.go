// Package profiling records per-turn stage timings as JSON lines.
package profiling

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level determines how detailed the profiling is
type Level string

const (
	LevelOff      Level = "off"      // No profiling
	LevelMinimal  Level = "minimal"  // Whole turns only
	LevelDetailed Level = "detailed" // Learn, activate and lookup stages too
)

// ParseLevel maps a config string to a Level. Unknown values are an error.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case "", LevelOff:
		return LevelOff, nil
	case LevelMinimal, LevelDetailed:
		return Level(s), nil
	default:
		return LevelOff, fmt.Errorf("unknown profiling level %q", s)
	}
}

// StageTiming is a single timing measurement
type StageTiming struct {
	TurnID     string         `json:"turn_id"`
	Stage      string         `json:"stage"`
	StartTime  time.Time      `json:"start_time"`
	DurationMs float64        `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Profiler appends stage timings to a log file. A nil *Profiler is valid
// and records nothing.
type Profiler struct {
	level   Level
	mu      sync.Mutex
	logFile *os.File
	encoder *json.Encoder
}

// Open creates a profiler writing to path. LevelOff (or "") returns nil.
func Open(level Level, path string) (*Profiler, error) {
	if level == LevelOff || level == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create profiling dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiling log: %w", err)
	}
	return &Profiler{level: level, logFile: f, encoder: json.NewEncoder(f)}, nil
}

// Close closes the log file
func (p *Profiler) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logFile.Close()
}

// Start begins timing a stage at the given level and returns a function
// to call when done
func (p *Profiler) Start(turnID, stage string, level Level) func() {
	return p.StartWithMetadata(turnID, stage, level, nil)
}

// StartWithMetadata is Start with extra fields attached to the record
func (p *Profiler) StartWithMetadata(turnID, stage string, level Level, metadata map[string]any) func() {
	if !p.ShouldProfile(level) {
		return func() {}
	}

	start := time.Now()
	return func() {
		p.Record(turnID, stage, time.Since(start), metadata)
	}
}

// Record writes a timing measurement
func (p *Profiler) Record(turnID, stage string, duration time.Duration, metadata map[string]any) {
	if p == nil {
		return
	}

	timing := StageTiming{
		TurnID:     turnID,
		Stage:      stage,
		StartTime:  time.Now().Add(-duration),
		DurationMs: float64(duration.Nanoseconds()) / 1e6,
		Metadata:   metadata,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.encoder.Encode(timing)
}

// ShouldProfile returns true if stages at level are recorded
func (p *Profiler) ShouldProfile(level Level) bool {
	if p == nil {
		return false
	}
	switch p.level {
	case LevelDetailed:
		return level == LevelMinimal || level == LevelDetailed
	case LevelMinimal:
		return level == LevelMinimal
	default:
		return false
	}
}

// GetLevel returns the current profiling level
func (p *Profiler) GetLevel() Level {
	if p == nil {
		return LevelOff
	}
	return p.level
}
