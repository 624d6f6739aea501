package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sgemm/internal/logger"
	"github.com/samcharles93/sgemm/internal/tensor"
	"github.com/samcharles93/sgemm/pkg/sgemm"
)

type benchResult struct {
	RunID    string           `json:"run_id"`
	M        int              `json:"m"`
	N        int              `json:"n"`
	K        int              `json:"k"`
	Threads  int              `json:"threads"`
	Backend  string           `json:"backend"`
	Blocks   sgemm.BlockSizes `json:"blocks"`
	Tuned    bool             `json:"tuned"`
	Runs     int              `json:"runs"`
	BestMS   float64          `json:"best_ms"`
	MeanMS   float64          `json:"mean_ms"`
	GFLOPS   float64          `json:"gflops"`
	Verified *verifyResult    `json:"verified,omitempty"`
}

func benchCmd() *cli.Command {
	var (
		opts       engineOptions
		m, n, k    int
		warmupRuns int
		benchRuns  int
		autotune   bool
		verify     bool
		asJSON     bool
	)

	flags := engineFlags(&opts)
	flags = append(flags,
		&cli.IntFlag{Name: "m", Usage: "rows of A and C", Value: 512, Destination: &m},
		&cli.IntFlag{Name: "n", Usage: "columns of B and C", Value: 512, Destination: &n},
		&cli.IntFlag{Name: "k", Usage: "shared dimension", Value: 512, Destination: &k},
		&cli.IntFlag{
			Name:        "warmup",
			Usage:       "number of warmup runs",
			Value:       1,
			Destination: &warmupRuns,
		},
		&cli.IntFlag{
			Name:        "runs",
			Usage:       "number of timed runs",
			Value:       5,
			Destination: &benchRuns,
		},
		&cli.BoolFlag{
			Name:        "autotune",
			Usage:       "try neighbouring block sizes and keep the fastest",
			Destination: &autotune,
		},
		&cli.BoolFlag{
			Name:        "verify",
			Usage:       "check the result against the float64 reference",
			Destination: &verify,
		},
		&cli.BoolFlag{Name: "json", Usage: "print the result as JSON", Destination: &asJSON},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Measure multiply throughput on random matrices",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyEngineConfig(cmd, fileConfig, &opts)
			if m < 0 || n < 0 || k < 0 {
				return cli.Exit("error: dimensions must be non-negative", 1)
			}
			if benchRuns < 1 {
				return cli.Exit("error: --runs must be at least 1", 1)
			}

			runID := uuid.NewString()
			log := logger.FromContext(ctx).With("run_id", runID)

			g, pool, err := newEngine(opts, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer pool.Close()

			A := tensor.NewMat(m, k)
			B := tensor.NewMat(k, n)
			C := tensor.NewMat(m, n)
			tensor.FillRand(&A, 1)
			tensor.FillRand(&B, 2)

			if autotune {
				tuned := sgemm.NewAutotuner().Tune(sgemm.Shape{M: m, K: k, N: n}, g.Blocks(), func(b sgemm.BlockSizes) float64 {
					cand, err := g.WithBlocks(b)
					if err != nil {
						return 0
					}
					best, _ := timeRuns(cand, A, B, C, 1, 1)
					gf := gflops(m, n, k, best)
					log.Debug("autotune candidate", "kc", b.KC, "mc", b.MC, "nc", b.NC, "gflops", gf)
					return gf
				})
				if g, err = g.WithBlocks(tuned.Blocks); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				log.Info("autotune picked", "kc", tuned.Blocks.KC, "mc", tuned.Blocks.MC, "nc", tuned.Blocks.NC)
			}

			log.Info("benchmarking", "m", m, "n", n, "k", k, "threads", pool.Threads())
			best, mean := timeRuns(g, A, B, C, warmupRuns, benchRuns)

			res := benchResult{
				RunID:   runID,
				M:       m,
				N:       n,
				K:       k,
				Threads: pool.Threads(),
				Backend: sgemm.DetectFeatures().Backend,
				Blocks:  g.Blocks(),
				Tuned:   autotune,
				Runs:    benchRuns,
				BestMS:  float64(best) / float64(time.Millisecond),
				MeanMS:  float64(mean) / float64(time.Millisecond),
				GFLOPS:  gflops(m, n, k, best),
			}
			if verify {
				v := verifyShape(g, verifyCase{M: m, N: n, K: k, Alpha: 1, Beta: 0}, 1)
				res.Verified = &v
			}

			if asJSON {
				err = writeIndentedJSON(os.Stdout, res)
			} else {
				printBench(os.Stdout, res)
			}
			if err != nil {
				return err
			}
			if res.Verified != nil && !res.Verified.OK {
				return cli.Exit(fmt.Sprintf("error: result exceeds tolerance (naive err %.3g > %.3g)", res.Verified.NaiveErr, res.Verified.Tolerance), 1)
			}
			return nil
		},
	}
}

// timeRuns returns the fastest and mean wall time over runs multiplies.
func timeRuns(g *sgemm.Gemm, A, B, C tensor.Mat, warmup, runs int) (best, mean time.Duration) {
	for range warmup {
		g.Multiply(A.R, B.C, A.C, 1, A.Data, B.Data, 0, C.Data)
	}
	var total time.Duration
	for i := range runs {
		start := time.Now()
		g.Multiply(A.R, B.C, A.C, 1, A.Data, B.Data, 0, C.Data)
		d := time.Since(start)
		total += d
		if i == 0 || d < best {
			best = d
		}
	}
	return best, total / time.Duration(max(runs, 1))
}

func gflops(m, n, k int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return 2 * float64(m) * float64(n) * float64(k) / d.Seconds() / 1e9
}

func printBench(w io.Writer, r benchResult) {
	fmt.Fprintf(w, "run:      %s\n", r.RunID)
	fmt.Fprintf(w, "shape:    m=%d n=%d k=%d\n", r.M, r.N, r.K)
	fmt.Fprintf(w, "engine:   %s, %d threads, KC=%d MC=%d NC=%d", r.Backend, r.Threads, r.Blocks.KC, r.Blocks.MC, r.Blocks.NC)
	if r.Tuned {
		fmt.Fprint(w, " (tuned)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "time:     best %.3f ms, mean %.3f ms over %d runs\n", r.BestMS, r.MeanMS, r.Runs)
	fmt.Fprintf(w, "rate:     %.2f GFLOP/s\n", r.GFLOPS)
	if v := r.Verified; v != nil {
		fmt.Fprintf(w, "verify:   naive err %.3g, gonum err %.3g, tol %.3g, ok=%t\n", v.NaiveErr, v.GonumErr, v.Tolerance, v.OK)
	}
}
