package brain

// Confidence reduces an activation profile to one scalar: the mean of the
// top scores over the normalizing constant, clamped so a saturated profile
// stays just short of certainty.
func (e *Engine) Confidence(act []Activation) float64 {
	p := e.Params
	if len(act) == 0 {
		return p.ConfidenceFloor
	}
	top := act[:min(p.ConfidenceTop, len(act))]
	var sum float64
	for _, a := range top {
		sum += a.Score
	}
	c := sum / (float64(len(top)) * p.ConfidenceNorm)
	return max(p.ConfidenceMin, min(p.ConfidenceMax, c))
}
