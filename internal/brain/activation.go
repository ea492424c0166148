package brain

import "sort"

// Activation is one ranked concept in an activation profile.
type Activation struct {
	Concept string  `json:"concept"`
	Score   float64 `json:"score"`
}

// Activate scores every concept against ctx, boosts concepts mentioned in
// tokens, then spreads part of the top seeds' scores to their linked
// neighbors. The result is sorted by descending score; ties keep creation
// order, then first-reached order for spread-only neighbors.
func (e *Engine) Activate(s *Store, tokens []string, ctx []float64) []Activation {
	if s.Len() == 0 {
		return nil
	}
	p := e.Params

	mentioned := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		mentioned[t] = true
	}

	scores := make([]Activation, 0, s.Len())
	s.Each(func(n *Neuron) {
		sim := dot(n.Vector, ctx)
		score := (sim + 1) / 2 * n.Strength
		if mentioned[n.Token] {
			score += p.MentionBoost
		}
		scores = append(scores, Activation{Concept: n.Token, Score: max(0, score)})
	})
	sortDesc(scores)

	seeds := scores[:min(p.SeedCount, len(scores))]

	// Accumulate into an insertion-ordered list so ties stay deterministic.
	spread := make([]Activation, len(seeds), len(seeds)+8)
	copy(spread, seeds)
	pos := make(map[string]int, len(seeds))
	for i, a := range spread {
		pos[a.Concept] = i
	}

	for _, seed := range seeds[:min(p.SpreadSources, len(seeds))] {
		n := s.Get(seed.Concept)
		for _, id := range n.neighborIDs() {
			neighbor := s.ByID(id).Token
			i, ok := pos[neighbor]
			if !ok {
				i = len(spread)
				pos[neighbor] = i
				spread = append(spread, Activation{Concept: neighbor})
			}
			spread[i].Score += seed.Score * min(p.SpreadCap, n.Links[id]*p.SpreadRate)
		}
	}

	sortDesc(spread)
	return spread[:min(p.ResultCount, len(spread))]
}

func sortDesc(a []Activation) {
	sort.SliceStable(a, func(i, j int) bool {
		return a[i].Score > a[j].Score
	})
}

// Concepts returns the concept names of an activation list, in order.
func Concepts(act []Activation) []string {
	out := make([]string, len(act))
	for i, a := range act {
		out[i] = a.Concept
	}
	return out
}
