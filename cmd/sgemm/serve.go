package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/samcharles93/sgemm/internal/api"
	"github.com/samcharles93/sgemm/internal/logger"
)

type serveOptions struct {
	addr        string
	readTimeout time.Duration
	rate        float64
	burst       int
	maxElements int
}

// limiter returns nil when rate limiting is disabled.
func (o serveOptions) limiter() *rate.Limiter {
	if o.rate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(o.rate), max(o.burst, 1))
}

func serveCmd() *cli.Command {
	var (
		opts  engineOptions
		sopts serveOptions
	)

	flags := engineFlags(&opts)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &sopts.addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read timeout",
			Value:       30 * time.Second,
			Destination: &sopts.readTimeout,
		},
		&cli.Float64Flag{
			Name:        "rate",
			Usage:       "sustained multiply requests per second (0 = unlimited)",
			Destination: &sopts.rate,
		},
		&cli.IntFlag{
			Name:        "burst",
			Usage:       "requests allowed above the sustained rate",
			Value:       8,
			Destination: &sopts.burst,
		},
		&cli.IntFlag{
			Name:        "max-elements",
			Usage:       "largest operand, in elements, accepted per request",
			Value:       api.DefaultMaxElements,
			Destination: &sopts.maxElements,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the multiply over HTTP",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyEngineConfig(cmd, fileConfig, &opts)
			applyServeConfig(cmd, fileConfig, &sopts)

			g, pool, err := newEngine(opts, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer pool.Close()

			server := api.NewServer(g, api.Config{
				Limiter:     sopts.limiter(),
				MaxElements: sopts.maxElements,
				Threads:     pool.Threads(),
				Log:         log.WithGroup("api"),
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", sopts.addr, "threads", pool.Threads(),
				"kc", g.Blocks().KC, "mc", g.Blocks().MC, "nc", g.Blocks().NC, "rate", sopts.rate)
			sc := echo.StartConfig{
				Address: sopts.addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = sopts.readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
