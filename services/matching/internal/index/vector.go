package index

import (
	"errors"
	"math"
)

var ErrVectorLengthMismatch = errors.New("vector length mismatch")

// NormalizeL2 returns a new vector scaled to unit L2 norm. A zero vector is
// copied unchanged.
func NormalizeL2(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 {
		copy(out, v)
		return out
	}
	inv := 1.0 / n
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Dot computes the inner product of two equal-length vectors.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrVectorLengthMismatch
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// Cosine is the inner product of the L2-normalized inputs.
func Cosine(a, b []float32) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	den := Norm(a) * Norm(b)
	if den == 0 {
		return 0, nil
	}
	return dot / den, nil
}
