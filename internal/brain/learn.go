package brain

// Engine runs learning and activation against a caller-owned Store.
type Engine struct {
	Params Params
}

// NewEngine creates an engine with the given tuning.
func NewEngine(p Params) *Engine {
	return &Engine{Params: p}
}

// Learn reinforces every distinct token of an utterance, pulls its vector
// toward ctx and links all co-occurring pairs. It returns the fraction of
// distinct tokens that were new to the store.
//
// Pair linking is quadratic in the number of distinct tokens; callers that
// learn long texts should split them first.
func (e *Engine) Learn(s *Store, tokens []string, ctx []float64) float64 {
	if len(tokens) == 0 {
		return 0
	}
	p := e.Params

	uniq := dedupe(tokens)
	touched := make([]*Neuron, len(uniq))
	unseen := 0
	for i, tok := range uniq {
		n, created := s.GetOrCreate(tok, p.InitialStrength)
		if created {
			unseen++
		}
		n.Hits++
		n.Strength = min(1.0, n.Strength+p.StrengthStep)
		for j := range n.Vector {
			n.Vector[j] = (1-p.LearningRate)*n.Vector[j] + p.LearningRate*ctx[j]
		}
		normalize(n.Vector)
		touched[i] = n
	}

	for i, a := range touched {
		for _, b := range touched[i+1:] {
			s.strengthen(a, b, p.LinkStep)
		}
	}

	return float64(unseen) / float64(len(uniq))
}

// dedupe keeps the first occurrence of each token
func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
