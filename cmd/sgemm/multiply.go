package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sgemm/internal/api"
	"github.com/samcharles93/sgemm/internal/logger"
	"github.com/samcharles93/sgemm/pkg/sgemm"
)

func multiplyCmd() *cli.Command {
	var (
		opts   engineOptions
		input  string
		output string
	)

	flags := engineFlags(&opts)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       `JSON request {"m","n","k","alpha","beta","a","b","c"} ("-" for stdin)`,
			Value:       "-",
			Destination: &input,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       `where to write the result ("-" for stdout)`,
			Value:       "-",
			Destination: &output,
		},
	)

	return &cli.Command{
		Name:  "multiply",
		Usage: "Compute C = alpha*A*B + beta*C for a JSON request",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyEngineConfig(cmd, fileConfig, &opts)

			req, err := readRequest(input)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			g, pool, err := newEngine(opts, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer pool.Close()

			resp, err := runRequest(g, req)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("multiply done", "m", req.M, "n", req.N, "k", req.K, "elapsed_ms", resp.ElapsedMS)

			w := io.Writer(os.Stdout)
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: create output: %v", err), 1)
				}
				defer f.Close()
				w = f
			}
			return json.NewEncoder(w).Encode(resp)
		},
	}
}

func readRequest(path string) (api.GemmRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return api.GemmRequest{}, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	var req api.GemmRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return api.GemmRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// runRequest validates req and multiplies in place. A missing C is
// allocated when beta is zero.
func runRequest(g *sgemm.Gemm, req api.GemmRequest) (api.GemmResponse, error) {
	if req.C == nil && req.Beta == 0 && req.M >= 0 && req.N >= 0 {
		req.C = make([]float32, req.M*req.N)
	}
	if err := sgemm.CheckDims(req.M, req.N, req.K, len(req.A), len(req.B), len(req.C)); err != nil {
		return api.GemmResponse{}, err
	}
	start := time.Now()
	g.Multiply(req.M, req.N, req.K, req.Alpha, req.A, req.B, req.Beta, req.C)
	elapsed := time.Since(start)
	return api.GemmResponse{
		ID:        "gemm_" + uuid.NewString(),
		Object:    "gemm.result",
		M:         req.M,
		N:         req.N,
		C:         req.C[:req.M*req.N],
		Blocks:    g.Blocks(),
		ElapsedMS: float64(elapsed) / float64(time.Millisecond),
	}, nil
}
