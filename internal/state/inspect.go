package state

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vthunder/nana/internal/graph"
)

// TimingLog is the profiling log, relative to the state path
const TimingLog = "system/timing.jsonl"

// Health thresholds
const (
	denseLinksPerNeuron = 200
	maxTimingEntries    = 10000
	maxEpisodes         = 100000
)

// Source is the database the inspector reads (graph.DB in production)
type Source interface {
	Stats() (map[string]int, error)
	TopNeurons(limit int) ([]graph.NeuronSummary, error)
}

// Inspector provides state introspection capabilities
type Inspector struct {
	statePath string
	db        Source
}

// NewInspector creates a new state inspector
func NewInspector(statePath string, db Source) *Inspector {
	return &Inspector{statePath: statePath, db: db}
}

// StateSummary holds counts for every part of the state directory
type StateSummary struct {
	Neurons   int   `json:"neurons"`
	Links     int   `json:"links"`
	Episodes  int   `json:"episodes"`
	StateKeys int   `json:"state_keys"`
	Timings   int   `json:"timing_entries"`
	DBBytes   int64 `json:"db_bytes"`
}

// HealthReport holds health check results
type HealthReport struct {
	Status          string   `json:"status"` // "healthy", "warnings"
	Warnings        []string `json:"warnings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Summary returns a summary of all state components
func (i *Inspector) Summary() (*StateSummary, error) {
	summary := &StateSummary{}

	if i.db != nil {
		stats, err := i.db.Stats()
		if err != nil {
			return nil, fmt.Errorf("failed to read db stats: %w", err)
		}
		summary.Neurons = stats["neurons"]
		summary.Links = stats["links"]
		summary.Episodes = stats["episodes"]
		summary.StateKeys = stats["agent_state"]
	}

	if info, err := os.Stat(filepath.Join(i.statePath, "system", "nana.db")); err == nil {
		summary.DBBytes = info.Size()
	}
	summary.Timings = i.countJSONL(TimingLog)

	return summary, nil
}

// Health runs health checks and returns a report
func (i *Inspector) Health() (*HealthReport, error) {
	report := &HealthReport{Status: "healthy"}

	summary, err := i.Summary()
	if err != nil {
		return nil, err
	}

	if summary.Neurons == 0 {
		report.Warnings = append(report.Warnings, "No neurons yet")
		report.Recommendations = append(report.Recommendations, "Talk to nana with `nana chat` to seed the memory")
	} else if summary.Links/summary.Neurons > denseLinksPerNeuron {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Dense link graph: %d links over %d neurons", summary.Links, summary.Neurons))
		report.Recommendations = append(report.Recommendations, "Learning cost grows with the square of distinct words per input; keep inputs short")
	}

	if summary.Episodes > maxEpisodes {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Large episode log: %d entries", summary.Episodes))
		report.Recommendations = append(report.Recommendations, "Consider archiving old episodes")
	}

	if summary.Timings > maxTimingEntries {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Large timing log: %d entries", summary.Timings))
		report.Recommendations = append(report.Recommendations, "Run `nana state --truncate-timings N` or set NANA_PROFILE=off")
	}

	if len(report.Warnings) > 0 {
		report.Status = "warnings"
	}

	return report, nil
}

// TopNeurons returns the strongest concepts
func (i *Inspector) TopNeurons(limit int) ([]graph.NeuronSummary, error) {
	if i.db == nil {
		return nil, nil
	}
	return i.db.TopNeurons(limit)
}

// TailTimings returns recent entries from the timing log
func (i *Inspector) TailTimings(count int) []map[string]any {
	return i.tailJSONL(TimingLog, count)
}

// TruncateTimings keeps only the last N entries in the timing log
func (i *Inspector) TruncateTimings(keep int) error {
	if err := i.truncateJSONL(TimingLog, keep); err != nil {
		return fmt.Errorf("failed to truncate timing.jsonl: %w", err)
	}
	return nil
}

func (i *Inspector) readJSONL(name string) ([]string, error) {
	file, err := os.Open(filepath.Join(i.statePath, name))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func (i *Inspector) countJSONL(name string) int {
	lines, _ := i.readJSONL(name)
	return len(lines)
}

func (i *Inspector) tailJSONL(name string, count int) []map[string]any {
	lines, _ := i.readJSONL(name)

	// Take last N
	if len(lines) > count {
		lines = lines[len(lines)-count:]
	}

	var result []map[string]any
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			result = append(result, entry)
		}
	}
	return result
}

func (i *Inspector) truncateJSONL(name string, keep int) error {
	lines, err := i.readJSONL(name)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	// Keep last N
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}

	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	return os.WriteFile(filepath.Join(i.statePath, name), []byte(content), 0644)
}
