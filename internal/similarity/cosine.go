package similarity

import (
	"fmt"
	"math"
)

// Cosine returns the cosine similarity of a and b in [-1, 1]
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero vector has no direction")
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp rounding drift
	return math.Max(-1, math.Min(1, score)), nil
}
