// Package vector scores embedding vectors against each other with cosine similarity.
package vector

import (
	"errors"
	"fmt"
	"math"

	"github.com/hyperjump/awase/pkg/utils"
)

// ErrDimensionMismatch is returned when vectors of different lengths are compared.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// InnerProduct returns the inner product of two vectors, accumulated in float64.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	return math.Sqrt(InnerProduct(x, x))
}

// Cosine returns the cosine similarity of a and b in [-1, 1]. A zero vector,
// an empty vector, or a length mismatch yields 0.
//
// The norms are combined as sqrt(|a|²·|b|²) with the same accumulation as the
// dot product, so Cosine(v, v) is exactly 1 for any non-zero v.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return utils.Clamp(dot/math.Sqrt(na*nb), -1, 1)
}

// Score returns the cosine similarity of v against every row of matrix, in row order.
func Score(v []float32, matrix [][]float32) ([]float64, error) {
	row := make([]float64, len(matrix))
	for i, m := range matrix {
		if len(m) != len(v) {
			return nil, fmt.Errorf("%w: row %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(m), len(v))
		}
		row[i] = Cosine(v, m)
	}
	return row, nil
}

// Max returns the largest value in row and its index. The first index wins on
// ties. An empty row yields (0, -1).
func Max(row []float64) (float64, int) {
	if len(row) == 0 {
		return 0, -1
	}
	best, at := row[0], 0
	for i := 1; i < len(row); i++ {
		if row[i] > best {
			best, at = row[i], i
		}
	}
	return best, at
}
