package tensor

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// GemmNaive computes C = alpha*A*B + beta*C with a triple loop, summing in
// float64 so that it can serve as the accuracy reference.
func GemmNaive(C, A, B *Mat, alpha, beta float32) {
	if A.C != B.R || C.R != A.R || C.C != B.C {
		panic("gemm: dimension mismatch")
	}
	for i := 0; i < A.R; i++ {
		aRow := A.Row(i)
		cRow := C.Row(i)
		for j := 0; j < B.C; j++ {
			var sum float64
			for kk := 0; kk < A.C; kk++ {
				sum += float64(aRow[kk]) * float64(B.Data[kk*B.Stride+j])
			}
			out := float64(alpha) * sum
			if beta != 0 {
				out += float64(beta) * float64(cRow[j])
			}
			cRow[j] = float32(out)
		}
	}
}

// GemmGonum computes C = alpha*A*B + beta*C with gonum's native blas32.
// gonum rejects zero leading dimensions, so empty shapes are handled here.
func GemmGonum(C, A, B *Mat, alpha, beta float32) {
	if C.R == 0 || C.C == 0 {
		return
	}
	if A.C == 0 {
		for i := range C.R {
			row := C.Row(i)
			for j := range row {
				if beta == 0 {
					row[j] = 0
				} else {
					row[j] *= beta
				}
			}
		}
		return
	}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, alpha, general(A), general(B), beta, general(C))
}

func general(m *Mat) blas32.General {
	return blas32.General{
		Rows:   m.R,
		Cols:   m.C,
		Stride: m.Stride,
		Data:   m.Data,
	}
}

// MaxAbsDiff returns the largest element-wise absolute difference.
func MaxAbsDiff(a, b []float32) float64 {
	var maxAbs float64
	for i := range a {
		d := math.Abs(float64(a[i] - b[i]))
		if math.IsNaN(d) {
			return math.Inf(1)
		}
		if d > maxAbs {
			maxAbs = d
		}
	}
	return maxAbs
}

// Tolerance is the accepted absolute error of a float32 result built from
// k accumulated products, where magnitude bounds the sum of the absolute
// values of every term (including beta*C).
func Tolerance(k int, magnitude float64) float64 {
	const eps = 1.0 / (1 << 23)
	return float64(k+2) * eps * magnitude * 4
}
