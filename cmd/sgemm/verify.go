package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sgemm/internal/logger"
	"github.com/samcharles93/sgemm/internal/tensor"
	"github.com/samcharles93/sgemm/pkg/sgemm"
)

type verifyCase struct {
	M     int     `json:"m"`
	N     int     `json:"n"`
	K     int     `json:"k"`
	Alpha float32 `json:"alpha"`
	Beta  float32 `json:"beta"`
}

type verifyResult struct {
	verifyCase
	NaiveErr  float64 `json:"naive_err"`
	GonumErr  float64 `json:"gonum_err"`
	Tolerance float64 `json:"tolerance"`
	OK        bool    `json:"ok"`
}

// defaultVerifyCases straddle the tile and block edges of the default plan.
func defaultVerifyCases() []verifyCase {
	var out []verifyCase
	for _, s := range [][3]int{
		{1, 1, 1}, {4, 12, 8}, {5, 13, 7}, {3, 11, 300},
		{17, 25, 257}, {113, 37, 64}, {64, 1921, 3}, {0, 5, 5}, {6, 6, 0},
	} {
		out = append(out,
			verifyCase{M: s[0], N: s[1], K: s[2], Alpha: 1, Beta: 0},
			verifyCase{M: s[0], N: s[1], K: s[2], Alpha: -0.5, Beta: 1.25},
		)
	}
	return out
}

func verifyCmd() *cli.Command {
	var (
		opts engineOptions
		seed int64
	)

	flags := engineFlags(&opts)
	flags = append(flags,
		&cli.Int64Flag{Name: "seed", Usage: "random seed", Value: 1, Destination: &seed},
	)

	return &cli.Command{
		Name:  "verify",
		Usage: "Check the blocked multiply against float64 and gonum references",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyEngineConfig(cmd, fileConfig, &opts)

			g, pool, err := newEngine(opts, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer pool.Close()

			results := runVerify(g, defaultVerifyCases(), seed)
			failed := printVerify(os.Stdout, results)
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("error: %d of %d cases exceeded tolerance", failed, len(results)), 1)
			}
			log.Info("verify passed", "cases", len(results))
			return nil
		},
	}
}

func runVerify(g *sgemm.Gemm, cases []verifyCase, seed int64) []verifyResult {
	out := make([]verifyResult, 0, len(cases))
	for i, vc := range cases {
		out = append(out, verifyShape(g, vc, seed+int64(i)*3))
	}
	return out
}

// verifyShape uses operands in [-1, 1) so the error bound is easy to state.
func verifyShape(g *sgemm.Gemm, vc verifyCase, seed int64) verifyResult {
	A := tensor.NewMat(vc.M, vc.K)
	B := tensor.NewMat(vc.K, vc.N)
	C := tensor.NewMat(vc.M, vc.N)
	tensor.FillRandRange(&A, seed, 2)
	tensor.FillRandRange(&B, seed+1, 2)
	tensor.FillRandRange(&C, seed+2, 2)

	got := C.Clone()
	g.Multiply(vc.M, vc.N, vc.K, vc.Alpha, A.Data, B.Data, vc.Beta, got.Data)

	naive := C.Clone()
	tensor.GemmNaive(&naive, &A, &B, vc.Alpha, vc.Beta)
	gonum := C.Clone()
	tensor.GemmGonum(&gonum, &A, &B, vc.Alpha, vc.Beta)

	magnitude := float64(vc.K)*math.Abs(float64(vc.Alpha)) + math.Abs(float64(vc.Beta))
	res := verifyResult{
		verifyCase: vc,
		NaiveErr:   tensor.MaxAbsDiff(got.Data, naive.Data),
		GonumErr:   tensor.MaxAbsDiff(got.Data, gonum.Data),
		Tolerance:  tensor.Tolerance(vc.K, max(magnitude, 1)),
	}
	// gonum rounds in float32 too, so both sides carry error.
	res.OK = res.NaiveErr <= res.Tolerance && res.GonumErr <= 2*res.Tolerance
	return res
}

func printVerify(w io.Writer, results []verifyResult) int {
	failed := 0
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(w, "%-4s m=%-4d n=%-5d k=%-4d alpha=%-5g beta=%-5g naive=%.3g gonum=%.3g tol=%.3g\n",
			status, r.M, r.N, r.K, r.Alpha, r.Beta, r.NaiveErr, r.GonumErr, r.Tolerance)
	}
	return failed
}
