package graph

import (
	"time"

	"github.com/vthunder/nana/internal/brain"
)

// Episode is one logged interaction
type Episode struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"time"`
	User       string             `json:"user"`
	Reply      string             `json:"nana"`
	Confidence float64            `json:"confidence"`
	Novelty    float64            `json:"novelty"`
	Activated  []brain.Activation `json:"activated,omitempty"` // truncated activation profile
}

// NeuronSummary is a condensed view of a stored concept
type NeuronSummary struct {
	Token    string  `json:"token"`
	Strength float64 `json:"strength"`
	Hits     int     `json:"hits"`
	Links    int     `json:"links"`
}

// State keys stored in agent_state
const (
	StateMood     = "mood"
	StateIdentity = "identity"
)
