package threadpool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewDefault(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	if pool.Threads() != runtime.GOMAXPROCS(0) {
		t.Fatalf("Threads() = %d, want %d", pool.Threads(), runtime.GOMAXPROCS(0))
	}
}

func TestCompute2DTiledCoversEveryCellOnce(t *testing.T) {
	t.Parallel()

	pool := New(4)
	defer pool.Close()

	cases := []struct {
		rows, cols, tr, tc int
	}{
		{1, 1, 1, 1},
		{7, 5, 3, 2},
		{64, 36, 16, 12},
		{65, 37, 16, 12},
		{3, 100, 112, 12},
		{200, 1, 7, 12},
	}
	for _, tc := range cases {
		hits := make([]int32, tc.rows*tc.cols)
		var tiles atomic.Int32
		pool.Compute2DTiled(tc.rows, tc.cols, tc.tr, tc.tc, func(rs, cs, rn, cn int) {
			tiles.Add(1)
			if rn < 1 || rn > tc.tr || cn < 1 || cn > tc.tc {
				t.Errorf("tile size %dx%d outside 1..%dx1..%d", rn, cn, tc.tr, tc.tc)
			}
			for i := rs; i < rs+rn; i++ {
				for j := cs; j < cs+cn; j++ {
					atomic.AddInt32(&hits[i*tc.cols+j], 1)
				}
			}
		})
		for idx, h := range hits {
			if h != 1 {
				t.Fatalf("%dx%d tiles %dx%d: cell %d hit %d times", tc.rows, tc.cols, tc.tr, tc.tc, idx, h)
			}
		}
		want := int32(((tc.rows + tc.tr - 1) / tc.tr) * ((tc.cols + tc.tc - 1) / tc.tc))
		if tiles.Load() != want {
			t.Fatalf("%dx%d: got %d tiles, want %d", tc.rows, tc.cols, tiles.Load(), want)
		}
	}
}

func TestCompute2DTiledEmpty(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	called := false
	pool.Compute2DTiled(0, 10, 4, 4, func(int, int, int, int) { called = true })
	pool.Compute2DTiled(10, 0, 4, 4, func(int, int, int, int) { called = true })
	if called {
		t.Fatal("fn called for empty space")
	}
}

func TestCompute2DTiledBlocksUntilDone(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	var done atomic.Int32
	pool.Compute2DTiled(32, 32, 1, 1, func(int, int, int, int) {
		runtime.Gosched()
		done.Add(1)
	})
	if got := done.Load(); got != 32*32 {
		t.Fatalf("returned with %d of %d tiles finished", got, 32*32)
	}
}

func TestCloseFallsBackToCaller(t *testing.T) {
	pool := New(4)
	pool.Close()
	pool.Close()

	var count int
	pool.Compute2DTiled(10, 10, 2, 2, func(int, int, int, int) { count++ })
	if count != 25 {
		t.Fatalf("count = %d, want 25", count)
	}
}

func TestConcurrentSubmissions(t *testing.T) {
	pool := New(3)
	defer pool.Close()

	var wg sync.WaitGroup
	var total atomic.Int64
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Compute2DTiled(20, 20, 3, 3, func(_, _, rn, cn int) {
				total.Add(int64(rn * cn))
			})
		}()
	}
	wg.Wait()
	if total.Load() != 8*400 {
		t.Fatalf("total = %d, want %d", total.Load(), 8*400)
	}
}

func BenchmarkCompute2DTiled(b *testing.B) {
	pool := New(0)
	defer pool.Close()

	for b.Loop() {
		pool.Compute2DTiled(512, 512, 112, 12, func(int, int, int, int) {})
	}
}
