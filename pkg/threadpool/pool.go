// Package threadpool provides a persistent worker pool that runs 2D tiled
// work. Workers are spawned once and fed through a channel, so repeated
// submissions do not pay goroutine start-up costs.
package threadpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

type job struct {
	fn   func()
	done *sync.WaitGroup
}

// Pool is a fixed-size set of worker goroutines.
type Pool struct {
	size      int
	jobs      chan job
	closeOnce sync.Once
	closed    atomic.Bool
	mu        sync.RWMutex
}

// New starts a pool with the given number of workers. threads <= 0 uses
// runtime.GOMAXPROCS(0).
func New(threads int) *Pool {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	threads = max(threads, 1)
	p := &Pool{
		size: threads,
		jobs: make(chan job, threads*2),
	}
	for range threads {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for j := range p.jobs {
		j.fn()
		j.done.Done()
	}
}

// Threads returns the number of workers.
func (p *Pool) Threads() int {
	return p.size
}

// Close stops the workers once queued work has drained. Later submissions
// run on the calling goroutine. Close is idempotent.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed.Store(true)
		close(p.jobs)
		p.mu.Unlock()
	})
}

// Compute2DTiled calls fn once for every tile of a rows x cols space cut
// into tiles of tileRows x tileCols; tiles on the bottom and right edges
// are clipped. Tiles are handed out to workers in row-major order through
// an atomic counter and may run in any order. Compute2DTiled returns after
// every tile has completed.
func (p *Pool) Compute2DTiled(rows, cols, tileRows, tileCols int, fn func(rowStart, colStart, rowSize, colSize int)) {
	if rows <= 0 || cols <= 0 {
		return
	}
	tileRows = max(tileRows, 1)
	tileCols = max(tileCols, 1)

	rowTiles := (rows + tileRows - 1) / tileRows
	colTiles := (cols + tileCols - 1) / tileCols
	total := rowTiles * colTiles

	run := func(t int) {
		rt, ct := t/colTiles, t%colTiles
		rowStart := rt * tileRows
		colStart := ct * tileCols
		fn(rowStart, colStart, min(tileRows, rows-rowStart), min(tileCols, cols-colStart))
	}

	workers := min(p.size, total)
	if workers <= 1 || p.closed.Load() {
		for t := range total {
			run(t)
		}
		return
	}

	var next atomic.Int64
	steal := func() {
		for {
			t := int(next.Add(1)) - 1
			if t >= total {
				return
			}
			run(t)
		}
	}

	p.mu.RLock()
	if p.closed.Load() {
		p.mu.RUnlock()
		steal()
		return
	}
	var wg sync.WaitGroup
	wg.Add(workers - 1)
	for range workers - 1 {
		p.jobs <- job{fn: steal, done: &wg}
	}
	p.mu.RUnlock()

	// The caller works too instead of idling on the barrier.
	steal()
	wg.Wait()
}
