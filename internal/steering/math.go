package steering

import (
	"fmt"
	"math"
)

// mean computes the element-wise arithmetic mean of equal-length vectors.
func mean(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("steering: mean of zero vectors")
	}
	dim := len(vectors[0])
	sums := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("steering: vector %d has dim %d, want %d", i, len(v), dim)
		}
		for j, x := range v {
			sums[j] += float64(x)
		}
	}
	out := make([]float32, dim)
	n := float64(len(vectors))
	for j, s := range sums {
		out[j] = float32(s / n)
	}
	return out, nil
}

func sub(a, b []float32) ([]float32, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("steering: dim mismatch %d vs %d", len(a), len(b))
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out, nil
}

// L2Norm returns the Euclidean norm of v.
func L2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// is zero or the dims differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	na := L2Norm(a)
	nb := L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}
