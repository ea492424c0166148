package brain

import (
	"encoding/binary"
	"math/rand/v2"
	"sort"

	"github.com/zeebo/blake3"
)

// Neuron is one learned concept, keyed by its token.
type Neuron struct {
	ID       int             `json:"id"` // creation index within the store
	Token    string          `json:"token"`
	Strength float64         `json:"strength"`
	Valence  float64         `json:"valence"`
	Vector   []float64       `json:"vector"`
	Links    map[int]float64 `json:"links"` // neighbor ID -> association weight
	Hits     int             `json:"hits"`
}

// NewNeuron builds the initial record for token. The vector is drawn from a
// generator seeded by the token's hash, so the same token always starts at
// the same point.
func NewNeuron(token string, dim int, strength float64) *Neuron {
	sum := blake3.Sum256([]byte(token))
	rng := rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))

	vec := make([]float64, dim)
	for i := range vec {
		vec[i] = uniform(rng, -1, 1)
	}

	return &Neuron{
		Token:    token,
		Strength: strength,
		Valence:  uniform(rng, -0.05, 0.05),
		Vector:   normalize(vec),
		Links:    make(map[int]float64),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// neighborIDs returns link targets in ascending ID order
func (n *Neuron) neighborIDs() []int {
	ids := make([]int, 0, len(n.Links))
	for id := range n.Links {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// LinkCount returns the number of outgoing links.
func (n *Neuron) LinkCount() int {
	return len(n.Links)
}
