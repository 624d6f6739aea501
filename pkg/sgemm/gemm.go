// Package sgemm computes the single-precision product C = alpha*A*B + beta*C
// for dense, row-major, caller-owned buffers.
//
// The work is cache blocked three ways: the reduction dimension in blocks
// of KC (sized for L1), the rows in blocks of MC (L2) and the columns in
// blocks of NC (L3). Every (KC, NC) block pair is split into MC x 12 tiles
// that an Executor runs in parallel; each tile is computed by a 4x12
// vector microkernel, or by its partial variant at the matrix edges.
//
// Reduction blocks are strictly sequential. The first one scales C by beta,
// every later one only adds its partial product.
package sgemm

import (
	"fmt"
	"sync"

	"github.com/samcharles93/sgemm/pkg/threadpool"
)

// Executor runs fn once per tile of a rows x cols space cut into tiles of
// at most tileRows x tileCols, possibly concurrently, and returns only
// after every tile has finished.
type Executor interface {
	Compute2DTiled(rows, cols, tileRows, tileCols int, fn func(rowStart, colStart, rowSize, colSize int))
}

// Config selects the blocking plan. A non-zero Blocks takes precedence
// over the plan derived from Cache.
type Config struct {
	Cache  CacheSizes `json:"cache" yaml:"cache"`
	Blocks BlockSizes `json:"blocks" yaml:"blocks"`
}

// DefaultConfig plans blocks from DefaultCacheSizes.
func DefaultConfig() Config {
	return Config{Cache: DefaultCacheSizes()}
}

// Gemm is a reusable multiply bound to one executor and one blocking plan.
// It holds no per-call state and is safe for concurrent use.
type Gemm struct {
	exec   Executor
	cache  CacheSizes
	blocks BlockSizes
}

// New validates cfg and plans the block sizes once.
func New(exec Executor, cfg Config) (*Gemm, error) {
	if exec == nil {
		return nil, ErrNilExecutor
	}
	blocks := cfg.Blocks
	if blocks.IsZero() {
		if err := cfg.Cache.Validate(); err != nil {
			return nil, err
		}
		blocks = PlanBlocks(cfg.Cache)
	}
	if err := blocks.Validate(); err != nil {
		return nil, err
	}
	return &Gemm{exec: exec, cache: cfg.Cache, blocks: blocks}, nil
}

// Blocks returns the block sizes used by Multiply.
func (g *Gemm) Blocks() BlockSizes {
	return g.blocks
}

// Cache returns the cache sizes the plan was derived from.
func (g *Gemm) Cache() CacheSizes {
	return g.cache
}

// WithBlocks returns a Gemm sharing g's executor but using blocks.
func (g *Gemm) WithBlocks(blocks BlockSizes) (*Gemm, error) {
	if err := blocks.Validate(); err != nil {
		return nil, err
	}
	return &Gemm{exec: g.exec, cache: g.cache, blocks: blocks}, nil
}

// Multiply sets c = alpha*a*b + beta*c where a is m x k, b is k x n and c
// is m x n, all row-major with no padding. a and b must not overlap c.
// It panics if a buffer is shorter than its dimensions require.
func (g *Gemm) Multiply(m, n, k int, alpha float32, a, b []float32, beta float32, c []float32) {
	if err := CheckDims(m, n, k, len(a), len(b), len(c)); err != nil {
		panic(err)
	}
	if m == 0 || n == 0 {
		return
	}
	if k == 0 {
		scale(c[:m*n], beta)
		return
	}

	kc, mc, nc := g.blocks.KC, g.blocks.MC, g.blocks.NC
	for kStart := 0; kStart < k; kStart += kc {
		kSize := min(k-kStart, kc)
		for colStart := 0; colStart < n; colStart += nc {
			colSize := min(n-colStart, nc)
			bc := newBlockContext(alpha, beta, a, b, c, m, n, k, kStart, kSize, colStart)
			g.exec.Compute2DTiled(m, colSize, mc, ColTile, bc.computeTile)
		}
	}
}

// CheckDims reports whether buffers of the given lengths can hold an
// m x k A, a k x n B and an m x n C.
func CheckDims(m, n, k, lenA, lenB, lenC int) error {
	if m < 0 || n < 0 || k < 0 {
		return fmt.Errorf("%w: m=%d n=%d k=%d", ErrNegativeDim, m, n, k)
	}
	switch {
	case lenA < m*k:
		return fmt.Errorf("%w: len(a)=%d < m*k=%d", ErrDimensionMismatch, lenA, m*k)
	case lenB < k*n:
		return fmt.Errorf("%w: len(b)=%d < k*n=%d", ErrDimensionMismatch, lenB, k*n)
	case lenC < m*n:
		return fmt.Errorf("%w: len(c)=%d < m*n=%d", ErrDimensionMismatch, lenC, m*n)
	}
	return nil
}

func scale(c []float32, beta float32) {
	if beta == 0 {
		clear(c)
		return
	}
	if beta == 1 {
		return
	}
	for i := range c {
		c[i] *= beta
	}
}

var defaultGemm = sync.OnceValue(func() *Gemm {
	g, err := New(threadpool.New(0), DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("sgemm: default config: %v", err))
	}
	return g
})

// Default returns the process-wide Gemm, created on first use with one
// worker per GOMAXPROCS and the default cache plan.
func Default() *Gemm {
	return defaultGemm()
}

// Multiply runs Default().Multiply.
func Multiply(m, n, k int, alpha float32, a, b []float32, beta float32, c []float32) {
	Default().Multiply(m, n, k, alpha, a, b, beta, c)
}
