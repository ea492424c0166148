package brain

import (
	"fmt"
	"sort"
)

// Store is the concept store: an append-only table of neurons addressed by
// token or by creation ID. Neurons are never removed.
//
// A Store is not safe for concurrent use; callers serialize access.
type Store struct {
	dim     int
	neurons []*Neuron
	index   map[string]int
}

// NewStore creates an empty store for vectors of length dim.
func NewStore(dim int) *Store {
	return &Store{
		dim:   dim,
		index: make(map[string]int),
	}
}

// Dim returns the vector dimension of the store.
func (s *Store) Dim() int {
	return s.dim
}

// Len returns the number of neurons.
func (s *Store) Len() int {
	return len(s.neurons)
}

// Get returns the neuron for token, or nil.
func (s *Store) Get(token string) *Neuron {
	id, ok := s.index[token]
	if !ok {
		return nil
	}
	return s.neurons[id]
}

// ByID returns the neuron with the given creation ID, or nil.
func (s *Store) ByID(id int) *Neuron {
	if id < 0 || id >= len(s.neurons) {
		return nil
	}
	return s.neurons[id]
}

// GetOrCreate returns the neuron for token, inserting a fresh one when absent.
// created reports whether an insert happened.
func (s *Store) GetOrCreate(token string, strength float64) (n *Neuron, created bool) {
	if n := s.Get(token); n != nil {
		return n, false
	}
	n = NewNeuron(token, s.dim, strength)
	s.insert(n)
	return n, true
}

func (s *Store) insert(n *Neuron) {
	n.ID = len(s.neurons)
	s.neurons = append(s.neurons, n)
	s.index[n.Token] = n.ID
}

// Put appends a neuron restored from persistence. IDs must arrive dense and
// in order (0, 1, 2, ...) so links resolve to the same neighbors.
func (s *Store) Put(n *Neuron) error {
	if n.ID != len(s.neurons) {
		return fmt.Errorf("neuron %q has id %d, expected %d", n.Token, n.ID, len(s.neurons))
	}
	if _, dup := s.index[n.Token]; dup {
		return fmt.Errorf("duplicate neuron %q", n.Token)
	}
	if len(n.Vector) != s.dim {
		return fmt.Errorf("neuron %q has %d-dim vector, store is %d-dim", n.Token, len(n.Vector), s.dim)
	}
	if n.Links == nil {
		n.Links = make(map[int]float64)
	}
	s.insert(n)
	return nil
}

// Each calls fn for every neuron in creation order.
func (s *Store) Each(fn func(n *Neuron)) {
	for _, n := range s.neurons {
		fn(n)
	}
}

// Link returns the weight of the a->b association (0 when absent).
func (s *Store) Link(a, b string) float64 {
	na, nb := s.Get(a), s.Get(b)
	if na == nil || nb == nil {
		return 0
	}
	return na.Links[nb.ID]
}

// Neighbors returns the tokens linked from token with their weights,
// strongest first. Equal weights keep neighbor creation order.
func (s *Store) Neighbors(token string) []Activation {
	n := s.Get(token)
	if n == nil {
		return nil
	}
	out := make([]Activation, 0, len(n.Links))
	for _, id := range n.neighborIDs() {
		out = append(out, Activation{Concept: s.neurons[id].Token, Score: n.Links[id]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// LinkCount returns the number of directed links in the store.
func (s *Store) LinkCount() int {
	total := 0
	for _, n := range s.neurons {
		total += len(n.Links)
	}
	return total
}

// strengthen adds w to both directions of the a<->b association
func (s *Store) strengthen(a, b *Neuron, w float64) {
	a.Links[b.ID] += w
	b.Links[a.ID] += w
}
