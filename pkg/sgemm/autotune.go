package sgemm

import "sync"

// Shape identifies a multiply by its dimensions.
type Shape struct {
	M int `json:"m"`
	K int `json:"k"`
	N int `json:"n"`
}

type TunedBlocks struct {
	Blocks BlockSizes `json:"blocks"`
	Score  float64    `json:"score"`
}

// Autotuner remembers the best scoring block sizes per shape.
type Autotuner struct {
	mu    sync.RWMutex
	cache map[Shape]TunedBlocks
}

func NewAutotuner() *Autotuner {
	return &Autotuner{
		cache: make(map[Shape]TunedBlocks),
	}
}

// Tune returns the cached choice for shape or, on a miss, scores base and
// its neighbours with run (higher is better) and caches the winner.
func (t *Autotuner) Tune(shape Shape, base BlockSizes, run func(BlockSizes) float64) TunedBlocks {
	t.mu.RLock()
	if tuned, ok := t.cache[shape]; ok {
		t.mu.RUnlock()
		return tuned
	}
	t.mu.RUnlock()

	best := TunedBlocks{Blocks: base, Score: run(base)}
	for _, cand := range candidateBlocks(base) {
		if cand == base {
			continue
		}
		if score := run(cand); score > best.Score {
			best = TunedBlocks{Blocks: cand, Score: score}
		}
	}

	t.mu.Lock()
	t.cache[shape] = best
	t.mu.Unlock()

	return best
}

// Lookup returns a previously tuned result.
func (t *Autotuner) Lookup(shape Shape) (TunedBlocks, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tuned, ok := t.cache[shape]
	return tuned, ok
}

// candidateBlocks keeps the L1/L2/L3 footprints roughly constant: when KC
// halves, MC and NC double and vice versa.
func candidateBlocks(base BlockSizes) []BlockSizes {
	var out []BlockSizes
	for _, f := range []struct{ num, den int }{{1, 2}, {2, 1}, {1, 4}} {
		kc := roundDown(base.KC*f.num/f.den, 2)
		if kc < 2 {
			continue
		}
		cand := BlockSizes{
			KC: kc,
			MC: roundDown(base.MC*f.den/f.num, RowTile),
			NC: roundDown(base.NC*f.den/f.num, ColTile),
		}
		if cand.Validate() == nil {
			out = append(out, cand)
		}
	}
	// Same KC with a smaller row block spreads tiles over more workers.
	if mc := roundDown(base.MC/2, RowTile); mc >= RowTile {
		cand := BlockSizes{KC: base.KC, MC: mc, NC: base.NC}
		if cand.Validate() == nil {
			out = append(out, cand)
		}
	}
	return out
}
