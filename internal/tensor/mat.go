package tensor

import (
	"errors"
	"fmt"
	"math/rand"
)

// Mat represents a dense row‑major matrix of float32 values.
//
// R and C represent the number of rows and columns respectively. Stride is the
// number of elements between the starts of two consecutive rows; matrices
// handed to the blocked multiply always have Stride == C.
type Mat struct {
	R, C   int
	Stride int
	Data   []float32
}

var (
	errNegativeDim      = errors.New("negative dimension for matrix")
	errDataSizeMismatch = errors.New("data length mismatch")
)

// NewMat allocates a new zero initialised r x c matrix.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic(errNegativeDim)
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   make([]float32, r*c),
	}
}

// NewMatFromData wraps data, which must hold exactly r*c elements.
func NewMatFromData(r, c int, data []float32) (Mat, error) {
	if r < 0 || c < 0 {
		return Mat{}, errNegativeDim
	}
	if r*c != len(data) {
		return Mat{}, fmt.Errorf("%w: %dx%d needs %d elements, got %d", errDataSizeMismatch, r, c, r*c, len(data))
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   data,
	}, nil
}

// Row returns a view of the i‑th row. Modifications to the returned slice
// update the matrix.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// Clone returns a deep copy.
func (m *Mat) Clone() Mat {
	out := *m
	out.Data = append([]float32(nil), m.Data...)
	return out
}

// FillRand fills the matrix with reproducible pseudo‑random values in
// (-0.01, 0.01). The same seed always produces the same matrix.
func FillRand(m *Mat, seed int64) {
	FillRandRange(m, seed, 0.02)
}

// FillRandRange fills the matrix with values in (-span/2, span/2).
func FillRandRange(m *Mat, seed int64, span float32) {
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Data {
		m.Data[i] = (rng.Float32() - 0.5) * span
	}
}
