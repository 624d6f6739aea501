package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sgemm/internal/api"
	"github.com/samcharles93/sgemm/internal/logger"
	"github.com/samcharles93/sgemm/pkg/sgemm"
)

func planCmd() *cli.Command {
	var (
		opts    engineOptions
		asJSON  bool
		m, n, k int
	)

	flags := engineFlags(&opts)
	flags = append(flags,
		&cli.BoolFlag{Name: "json", Usage: "print the plan as JSON", Destination: &asJSON},
		&cli.IntFlag{Name: "m", Usage: "rows of A and C, for a per-shape breakdown", Destination: &m},
		&cli.IntFlag{Name: "n", Usage: "columns of B and C", Destination: &n},
		&cli.IntFlag{Name: "k", Usage: "shared dimension", Destination: &k},
	)

	return &cli.Command{
		Name:  "plan",
		Usage: "Show cache sizes, block sizes and CPU features",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyEngineConfig(cmd, fileConfig, &opts)
			g, pool, err := newEngine(opts, logger.FromContext(ctx))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer pool.Close()

			plan := api.PlanResponse{
				Object:   "gemm.plan",
				Cache:    g.Cache(),
				Blocks:   g.Blocks(),
				Threads:  pool.Threads(),
				Features: sgemm.DetectFeatures(),
			}
			if m > 0 || n > 0 || k > 0 {
				plan.Shape = api.NewShapePlan(g.Blocks(), m, n, k)
			}
			if asJSON {
				return writeIndentedJSON(os.Stdout, plan)
			}
			printPlan(os.Stdout, plan)
			return nil
		},
	}
}

func printPlan(w io.Writer, p api.PlanResponse) {
	f := p.Features
	fmt.Fprintf(w, "cache:    L1=%s L2=%s L3=%s\n", humanBytes(p.Cache.L1), humanBytes(p.Cache.L2), humanBytes(p.Cache.L3))
	fmt.Fprintf(w, "blocks:   KC=%d MC=%d NC=%d\n", p.Blocks.KC, p.Blocks.MC, p.Blocks.NC)
	fmt.Fprintf(w, "tile:     %dx%d\n", sgemm.RowTile, sgemm.ColTile)
	fmt.Fprintf(w, "threads:  %d\n", p.Threads)
	fmt.Fprintf(w, "arch:     %s (backend %s)\n", f.Arch, f.Backend)
	fmt.Fprintf(w, "features: fma=%t avx=%t avx2=%t neon=%t\n", f.FMA, f.AVX, f.AVX2, f.NEON)
	if s := p.Shape; s != nil {
		fmt.Fprintf(w, "shape:    %dx%dx%d -> %d reduction x %d column x %d row blocks\n",
			s.M, s.N, s.K, s.ReductionBlocks, s.ColumnBlocks, s.RowBlocks)
	}
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dM", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dK", n>>10)
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func writeIndentedJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
