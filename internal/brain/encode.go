package brain

import (
	"crypto/sha256"
	"math"
)

// Encode embeds text into a deterministic unit vector of length dim.
// Position i takes digest byte i mod 32, mapped linearly onto [-1,1].
func Encode(text string, dim int) []float64 {
	digest := sha256.Sum256([]byte(text))
	vec := make([]float64, dim)
	for i := range vec {
		b := digest[i%len(digest)]
		vec[i] = float64(b)/255.0*2 - 1
	}
	return normalize(vec)
}

// normalize scales v to unit length in place. A zero vector stays zero.
func normalize(v []float64) []float64 {
	norm := math.Sqrt(dot(v, v))
	if norm == 0 {
		norm = 1
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
