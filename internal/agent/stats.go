package agent

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/vthunder/nana/internal/logging"
)

// Stats is a snapshot of the agent's growth
type Stats struct {
	Name      string        `json:"name"`
	Neurons   int           `json:"neurons"`
	Links     int           `json:"links"`
	Episodes  int           `json:"episodes"`
	AgeCycles int           `json:"age_cycles"`
	Mood      Mood          `json:"mood"`
	Process   *ProcessStats `json:"process,omitempty"`
}

// ProcessStats describes the hosting process
type ProcessStats struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}

// Stats returns the current growth snapshot. Process figures are omitted
// when the platform cannot report them.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	s := Stats{
		Name:      a.identity.Name,
		Neurons:   a.store.Len(),
		Links:     a.store.LinkCount(),
		AgeCycles: a.identity.AgeCycles,
		Mood:      a.mood,
	}
	a.mu.Unlock()

	if n, err := a.db.CountEpisodes(); err == nil {
		s.Episodes = n
	} else {
		logging.Warn("agent", "failed to count episodes: %v", err)
	}

	if ps, err := currentProcess(); err == nil {
		s.Process = ps
	} else {
		logging.Debug("agent", "process stats unavailable: %v", err)
	}
	return s
}

// String renders the one-line summary printed by /state
func (s Stats) String() string {
	out := fmt.Sprintf("neurons=%d, links=%d, episodes=%d, age_cycles=%d, mood={curiosity:%.2f confidence:%.2f warmth:%.2f}",
		s.Neurons, s.Links, s.Episodes, s.AgeCycles, s.Mood.Curiosity, s.Mood.Confidence, s.Mood.Warmth)
	if s.Process != nil {
		out += fmt.Sprintf(", rss=%.1fMB", float64(s.Process.RSSBytes)/(1024*1024))
	}
	return out
}

func currentProcess() (*ProcessStats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return nil, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return nil, err
	}
	return &ProcessStats{RSSBytes: mem.RSS, CPUPercent: cpu}, nil
}
