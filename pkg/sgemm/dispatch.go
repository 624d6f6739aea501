package sgemm

// blockContext is shared read-only by every tile of one
// (reduction block, column block) submission.
type blockContext struct {
	alpha, beta float32
	a, b, c     []float32

	kStart, kSize int
	m, n, k       int
	colStart      int

	mode accumulateMode
}

func newBlockContext(alpha, beta float32, a, b, c []float32, m, n, k, kStart, kSize, colStart int) *blockContext {
	mode := firstBlock
	if kStart != 0 {
		mode = accumulate
	}
	return &blockContext{
		alpha:    alpha,
		beta:     beta,
		a:        a,
		b:        b,
		c:        c,
		kStart:   kStart,
		kSize:    kSize,
		m:        m,
		n:        n,
		k:        k,
		colStart: colStart,
		mode:     mode,
	}
}

// computeTile handles rows [rowStart, rowStart+rowSize) and columns
// [colStart, colStart+colSize) of the current column block. colSize is at
// most ColTile.
func (bc *blockContext) computeTile(rowStart, colStart, rowSize, colSize int) {
	col := bc.colStart + colStart
	aOff := rowStart*bc.k + bc.kStart
	bOff := bc.kStart*bc.n + col
	cOff := rowStart*bc.n + col
	b := bc.b[bOff:]

	if colSize == ColTile {
		for rowSize >= RowTile {
			kernel4x12(bc.kSize, bc.mode, bc.n, bc.k, bc.alpha, bc.beta, bc.a[aOff:], b, bc.c[cOff:])
			rowSize -= RowTile
			aOff += RowTile * bc.k
			cOff += RowTile * bc.n
		}
	}

	for rowSize > 0 {
		rows := min(rowSize, RowTile)
		kernelUpTo4x12(rows, colSize, bc.kSize, bc.mode, bc.n, bc.k, bc.alpha, bc.beta, bc.a[aOff:], b, bc.c[cOff:])
		rowSize -= rows
		aOff += RowTile * bc.k
		cOff += RowTile * bc.n
	}
}
