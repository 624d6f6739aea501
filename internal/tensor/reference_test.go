package tensor

import (
	"math"
	"testing"
)

func TestGemmNaiveMatchesGonum(t *testing.T) {
	t.Parallel()

	A := NewMat(13, 29)
	B := NewMat(29, 17)
	C0 := NewMat(13, 17)

	FillRand(&A, 1)
	FillRand(&B, 2)
	FillRand(&C0, 3)
	C1 := C0.Clone()

	GemmNaive(&C0, &A, &B, 1.5, -0.5)
	GemmGonum(&C1, &A, &B, 1.5, -0.5)

	if maxAbs := MaxAbsDiff(C0.Data, C1.Data); maxAbs > 1e-6 {
		t.Fatalf("max abs diff %g", maxAbs)
	}
}

func TestGemmNaiveBetaZeroIgnoresC(t *testing.T) {
	t.Parallel()

	A, _ := NewMatFromData(1, 1, []float32{2})
	B, _ := NewMatFromData(1, 1, []float32{3})
	C, _ := NewMatFromData(1, 1, []float32{float32(math.NaN())})

	GemmNaive(&C, &A, &B, 1, 0)
	if C.Data[0] != 6 {
		t.Fatalf("got %v, want 6", C.Data[0])
	}
}

func TestNewMatFromDataMismatch(t *testing.T) {
	t.Parallel()

	if _, err := NewMatFromData(2, 3, make([]float32, 5)); err == nil {
		t.Fatal("expected error for short data")
	}
	if _, err := NewMatFromData(-1, 3, nil); err == nil {
		t.Fatal("expected error for negative rows")
	}
}

func TestMaxAbsDiffNaN(t *testing.T) {
	t.Parallel()

	if d := MaxAbsDiff([]float32{1}, []float32{float32(math.NaN())}); !math.IsInf(d, 1) {
		t.Fatalf("got %g, want +Inf", d)
	}
}

func TestFillRandDeterministic(t *testing.T) {
	t.Parallel()

	a := NewMat(4, 4)
	b := NewMat(4, 4)
	FillRand(&a, 7)
	FillRand(&b, 7)
	if MaxAbsDiff(a.Data, b.Data) != 0 {
		t.Fatal("same seed produced different matrices")
	}
	for _, v := range a.Data {
		if v <= -0.01 || v >= 0.01 {
			t.Fatalf("value %v outside (-0.01, 0.01)", v)
		}
	}
}

func TestGemmGonumEmptyReduction(t *testing.T) {
	t.Parallel()

	A := NewMat(2, 0)
	B := NewMat(0, 3)
	C, _ := NewMatFromData(2, 3, []float32{1, 2, 3, 4, 5, 6})
	GemmGonum(&C, &A, &B, 1, 2)
	for i, v := range C.Data {
		if v != float32(2*(i+1)) {
			t.Fatalf("C[%d] = %v, want %v", i, v, 2*(i+1))
		}
	}

	empty, a, b := NewMat(0, 3), NewMat(0, 4), NewMat(4, 3)
	GemmGonum(&empty, &a, &b, 1, 0)
}
