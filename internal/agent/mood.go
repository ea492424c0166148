package agent

// Mood is the agent's slowly moving affect. Every field stays in [0,1].
type Mood struct {
	Curiosity  float64 `json:"curiosity"`
	Confidence float64 `json:"confidence"`
	Warmth     float64 `json:"warmth"`
}

// DefaultMood is the mood of a freshly created agent
func DefaultMood() Mood {
	return Mood{Curiosity: 0.68, Confidence: 0.34, Warmth: 0.72}
}

// update folds one thought into the mood
func (m *Mood) update(confidence, novelty float64) {
	m.Confidence = clamp01(m.Confidence*0.7 + confidence*0.3)
	m.Curiosity = clamp01(m.Curiosity*0.75 + novelty*0.25)
	m.Warmth = clamp01(m.Warmth*0.9 + 0.05)
}

// Identity is who the agent believes it is
type Identity struct {
	Name      string `json:"name"`
	AgeCycles int    `json:"age_cycles"` // completed responses
}

// DefaultIdentity is the identity of a freshly created agent
func DefaultIdentity() Identity {
	return Identity{Name: "Nana"}
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}
