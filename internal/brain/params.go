package brain

import "fmt"

// Dim is the embedding dimension shared by the encoder, neurons and the
// persisted store.
const Dim = 24

// MaxResults bounds the length of an activation list.
const MaxResults = 10

// Params holds the tuning constants of the learning and activation engine.
// Zero values are not meaningful; start from DefaultParams.
type Params struct {
	Dim int `yaml:"dim"`

	// Learning
	InitialStrength float64 `yaml:"initial_strength"` // strength of a freshly created neuron
	StrengthStep    float64 `yaml:"strength_step"`    // reinforcement per occurrence, clamped at 1
	LearningRate    float64 `yaml:"learning_rate"`    // EMA rate pulling a vector toward the context
	LinkStep        float64 `yaml:"link_step"`        // additive co-occurrence weight per utterance

	// Activation
	MentionBoost  float64 `yaml:"mention_boost"`  // added when the token is literally in the utterance
	SeedCount     int     `yaml:"seed_count"`     // top-K kept before spreading
	SpreadSources int     `yaml:"spread_sources"` // seeds that spread to their neighbors
	SpreadCap     float64 `yaml:"spread_cap"`     // max fraction of a seed score given to one neighbor
	SpreadRate    float64 `yaml:"spread_rate"`    // fraction per unit of link weight
	ResultCount   int     `yaml:"result_count"`   // length of the returned activation list

	// Confidence
	ConfidenceTop   int     `yaml:"confidence_top"`
	ConfidenceNorm  float64 `yaml:"confidence_norm"`
	ConfidenceFloor float64 `yaml:"confidence_floor"` // returned for an empty activation list
	ConfidenceMin   float64 `yaml:"confidence_min"`
	ConfidenceMax   float64 `yaml:"confidence_max"`
}

// DefaultParams returns the tuning used by the agent.
func DefaultParams() Params {
	return Params{
		Dim:             Dim,
		InitialStrength: 0.15,
		StrengthStep:    0.08,
		LearningRate:    0.12,
		LinkStep:        0.1,
		MentionBoost:    0.3,
		SeedCount:       12,
		SpreadSources:   6,
		SpreadCap:       0.3,
		SpreadRate:      0.06,
		ResultCount:     10,
		ConfidenceTop:   5,
		ConfidenceNorm:  0.85,
		ConfidenceFloor: 0.08,
		ConfidenceMin:   0.05,
		ConfidenceMax:   0.95,
	}
}

// Validate rejects tunings that would break the engine's invariants.
func (p Params) Validate() error {
	if p.Dim <= 0 {
		return fmt.Errorf("dim must be positive, got %d", p.Dim)
	}
	if p.InitialStrength < 0 || p.InitialStrength > 1 {
		return fmt.Errorf("initial_strength must be in [0,1], got %g", p.InitialStrength)
	}
	if p.StrengthStep < 0 {
		return fmt.Errorf("strength_step must be non-negative, got %g", p.StrengthStep)
	}
	if p.LearningRate < 0 || p.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in [0,1], got %g", p.LearningRate)
	}
	if p.LinkStep < 0 {
		return fmt.Errorf("link_step must be non-negative, got %g", p.LinkStep)
	}
	if p.SeedCount <= 0 || p.ResultCount <= 0 || p.ConfidenceTop <= 0 {
		return fmt.Errorf("seed_count, result_count and confidence_top must be positive")
	}
	if p.ResultCount > MaxResults {
		return fmt.Errorf("result_count must be at most %d, got %d", MaxResults, p.ResultCount)
	}
	if p.SpreadSources < 0 || p.SpreadSources > p.SeedCount {
		return fmt.Errorf("spread_sources must be in [0,seed_count], got %d", p.SpreadSources)
	}
	if p.ConfidenceNorm <= 0 {
		return fmt.Errorf("confidence_norm must be positive, got %g", p.ConfidenceNorm)
	}
	if p.ConfidenceMin > p.ConfidenceMax {
		return fmt.Errorf("confidence_min %g exceeds confidence_max %g", p.ConfidenceMin, p.ConfidenceMax)
	}
	return nil
}
