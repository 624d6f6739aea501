package sgemm

// accumulateMode selects how a microkernel combines its accumulators with C.
type accumulateMode uint8

const (
	// firstBlock: C = beta*C + alpha*acc. Used for the first reduction block
	// of every output element, so beta is applied exactly once.
	firstBlock accumulateMode = iota
	// accumulate: C += alpha*acc. Used for every later reduction block.
	accumulate
)

func (m accumulateMode) String() string {
	if m == accumulate {
		return "accumulate"
	}
	return "first-block"
}

// kernel4x12 computes a full RowTile x ColTile tile over k reduction steps.
//
// a points at row 0 of the A strip (rows are lda apart), b at the first
// reduction row of the B panel and c at the top-left output element; B
// and C rows are ldc apart. k must be >= 1.
func kernel4x12(k int, mode accumulateMode, ldc, lda int, alpha, beta float32, a, b, c []float32) {
	a0 := a[0*lda : 0*lda+k]
	a1 := a[1*lda : 1*lda+k]
	a2 := a[2*lda : 2*lda+k]
	a3 := a[3*lda : 3*lda+k]

	c00, c01, c02 := zeroVec(), zeroVec(), zeroVec()
	c10, c11, c12 := zeroVec(), zeroVec(), zeroVec()
	c20, c21, c22 := zeroVec(), zeroVec(), zeroVec()
	c30, c31, c32 := zeroVec(), zeroVec(), zeroVec()

	for kk := range k {
		bRow := b[kk*ldc : kk*ldc+ColTile]
		vb0 := loadVecAligned((*[4]float32)(bRow[0:4]))
		vb1 := loadVecAligned((*[4]float32)(bRow[4:8]))
		vb2 := loadVecAligned((*[4]float32)(bRow[8:12]))

		va0 := splat(a0[kk])
		va1 := splat(a1[kk])
		va2 := splat(a2[kk])
		va3 := splat(a3[kk])

		c00 = mulAdd(vb0, va0, c00)
		c10 = mulAdd(vb0, va1, c10)
		c20 = mulAdd(vb0, va2, c20)
		c30 = mulAdd(vb0, va3, c30)
		c01 = mulAdd(vb1, va0, c01)
		c11 = mulAdd(vb1, va1, c11)
		c21 = mulAdd(vb1, va2, c21)
		c31 = mulAdd(vb1, va3, c31)
		c02 = mulAdd(vb2, va0, c02)
		c12 = mulAdd(vb2, va1, c12)
		c22 = mulAdd(vb2, va2, c22)
		c32 = mulAdd(vb2, va3, c32)
	}

	vAlpha := splat(alpha)
	rows := [RowTile][3]vec4{
		{c00, c01, c02},
		{c10, c11, c12},
		{c20, c21, c22},
		{c30, c31, c32},
	}

	switch {
	case mode == accumulate:
		for r := range RowTile {
			cRow := c[r*ldc : r*ldc+ColTile]
			storeVec(cRow[0:], mulAdd(rows[r][0], vAlpha, loadVec(cRow[0:])))
			storeVec(cRow[4:], mulAdd(rows[r][1], vAlpha, loadVec(cRow[4:])))
			storeVec(cRow[8:], mulAdd(rows[r][2], vAlpha, loadVec(cRow[8:])))
		}
	case beta == 0:
		for r := range RowTile {
			cRow := c[r*ldc : r*ldc+ColTile]
			storeVec(cRow[0:], mul(rows[r][0], vAlpha))
			storeVec(cRow[4:], mul(rows[r][1], vAlpha))
			storeVec(cRow[8:], mul(rows[r][2], vAlpha))
		}
	default:
		vBeta := splat(beta)
		for r := range RowTile {
			cRow := c[r*ldc : r*ldc+ColTile]
			storeVec(cRow[0:], mulAdd(rows[r][0], vAlpha, mul(loadVec(cRow[0:]), vBeta)))
			storeVec(cRow[4:], mulAdd(rows[r][1], vAlpha, mul(loadVec(cRow[4:]), vBeta)))
			storeVec(cRow[8:], mulAdd(rows[r][2], vAlpha, mul(loadVec(cRow[8:]), vBeta)))
		}
	}
}

// laneCounts[nr][g] is the number of valid lanes of vector group g when a
// tile is nr columns wide.
var laneCounts = func() [ColTile + 1][3]int {
	var t [ColTile + 1][3]int
	for nr := range ColTile + 1 {
		for g := range 3 {
			t[nr][g] = min(max(nr-4*g, 0), 4)
		}
	}
	return t
}()

// kernelUpTo4x12 is the boundary variant of kernel4x12 for tiles of
// 1..RowTile rows and 1..ColTile columns. Lanes past nr are computed on
// zero padding and never stored; rows past mr are never read or written.
func kernelUpTo4x12(mr, nr, k int, mode accumulateMode, ldc, lda int, alpha, beta float32, a, b, c []float32) {
	lanes := laneCounts[nr]
	groups := (nr + 3) / 4

	var aRows [RowTile][]float32
	for r := range mr {
		aRows[r] = a[r*lda : r*lda+k]
	}

	var acc [RowTile][3]vec4
	for r := range RowTile {
		for g := range 3 {
			acc[r][g] = zeroVec()
		}
	}

	var vb [3]vec4
	for kk := range k {
		bRow := b[kk*ldc : kk*ldc+nr]
		for g := range groups {
			vb[g] = loadLanes(bRow[4*g:], lanes[g])
		}
		for r := range mr {
			va := splat(aRows[r][kk])
			for g := range groups {
				acc[r][g] = mulAdd(vb[g], va, acc[r][g])
			}
		}
	}

	vAlpha := splat(alpha)
	vBeta := splat(beta)
	for r := range mr {
		cRow := c[r*ldc : r*ldc+nr]
		for g := range groups {
			writeLanes(cRow[4*g:], acc[r][g], lanes[g], mode, vAlpha, vBeta, beta)
		}
	}
}

func loadLanes(s []float32, n int) vec4 {
	if n == 4 {
		return loadVec(s)
	}
	return loadVecPart(s, n)
}

func storeLanes(s []float32, v vec4, n int) {
	if n == 4 {
		storeVec(s, v)
		return
	}
	storeVecPart(s, v, n)
}

// writeLanes applies the same combine as kernel4x12 to the first n lanes.
func writeLanes(dst []float32, acc vec4, n int, mode accumulateMode, vAlpha, vBeta vec4, beta float32) {
	switch {
	case mode == accumulate:
		storeLanes(dst, mulAdd(acc, vAlpha, loadLanes(dst, n)), n)
	case beta == 0:
		storeLanes(dst, mul(acc, vAlpha), n)
	default:
		storeLanes(dst, mulAdd(acc, vAlpha, mul(loadLanes(dst, n), vBeta)), n)
	}
}
