package main

import (
	"github.com/samcharles93/sgemm/internal/logger"
	"github.com/samcharles93/sgemm/pkg/sgemm"
	"github.com/samcharles93/sgemm/pkg/threadpool"
)

type engineOptions struct {
	threads     int
	detectCache bool
	l1, l2, l3  int
	kc, mc, nc  int
}

func (o engineOptions) cacheSizes() sgemm.CacheSizes {
	cache := sgemm.DefaultCacheSizes()
	if o.detectCache {
		cache = sgemm.DetectCacheSizes()
	}
	if o.l1 > 0 {
		cache.L1 = o.l1
	}
	if o.l2 > 0 {
		cache.L2 = o.l2
	}
	if o.l3 > 0 {
		cache.L3 = o.l3
	}
	return cache
}

// config derives the plan from the cache sizes and then applies any
// explicit block overrides on top.
func (o engineOptions) config() sgemm.Config {
	cfg := sgemm.Config{Cache: o.cacheSizes()}
	if o.kc == 0 && o.mc == 0 && o.nc == 0 {
		return cfg
	}
	blocks := sgemm.PlanBlocks(cfg.Cache)
	if o.kc > 0 {
		blocks.KC = o.kc
	}
	if o.mc > 0 {
		blocks.MC = o.mc
	}
	if o.nc > 0 {
		blocks.NC = o.nc
	}
	cfg.Blocks = blocks
	return cfg
}

// newEngine returns a Gemm bound to a fresh pool. The caller owns the pool.
func newEngine(o engineOptions, log logger.Logger) (*sgemm.Gemm, *threadpool.Pool, error) {
	pool := threadpool.New(o.threads)
	g, err := sgemm.New(pool, o.config())
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Debug("engine ready",
		"threads", pool.Threads(),
		"kc", g.Blocks().KC, "mc", g.Blocks().MC, "nc", g.Blocks().NC,
		"backend", sgemm.DetectFeatures().Backend)
	return g, pool, nil
}
