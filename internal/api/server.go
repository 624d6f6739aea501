package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/samcharles93/sgemm/internal/logger"
	"github.com/samcharles93/sgemm/internal/version"
	"github.com/samcharles93/sgemm/pkg/sgemm"
)

const (
	// DefaultMaxElements bounds each of m*k, k*n and m*n for one request.
	DefaultMaxElements = 1 << 22
	headerRequestID    = "X-Request-ID"
)

type Config struct {
	// Limiter throttles POST /v1/gemm. Nil disables throttling.
	Limiter     *rate.Limiter
	MaxElements int
	Threads     int
	Log         logger.Logger
}

type Server struct {
	gemm        *sgemm.Gemm
	limiter     *rate.Limiter
	maxElements int
	threads     int
	features    sgemm.Features
	log         logger.Logger
	clock       func() time.Time
}

func NewServer(g *sgemm.Gemm, cfg Config) *Server {
	if g == nil {
		g = sgemm.Default()
	}
	if cfg.MaxElements <= 0 {
		cfg.MaxElements = DefaultMaxElements
	}
	if cfg.Log == nil {
		cfg.Log = logger.Discard()
	}
	return &Server{
		gemm:        g,
		limiter:     cfg.Limiter,
		maxElements: cfg.MaxElements,
		threads:     cfg.Threads,
		features:    sgemm.DetectFeatures(),
		log:         cfg.Log,
		clock:       time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/gemm", s.handleGemm, s.throttle)
	e.GET("/v1/plan", s.handlePlan)
	e.GET("/healthz", s.handleHealth)
}

// throttle rejects requests once the limiter's burst is spent.
func (s *Server) throttle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		if s.limiter != nil && !s.limiter.Allow() {
			c.Response().Header().Set("Retry-After", "1")
			return writeError(c, http.StatusTooManyRequests, "rate_limit_error", "too many requests", "")
		}
		return next(c)
	}
}

func (s *Server) handleGemm(c *echo.Context) error {
	id := c.Request().Header.Get(headerRequestID)
	if id == "" {
		id = "gemm_" + uuid.NewString()
	}
	c.Response().Header().Set(headerRequestID, id)

	body := http.MaxBytesReader(c.Response(), c.Request().Body, int64(s.maxElements)*3*16+4096)
	req, err := decodeJSON[GemmRequest](body)
	if err != nil {
		return writeBadRequest(c, "decode request: "+err.Error(), "")
	}
	if err := s.checkSize(req); err != nil {
		return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", err.Error(), paramFor(err))
	}
	if req.C == nil && req.Beta == 0 && req.M >= 0 && req.N >= 0 {
		req.C = make([]float32, req.M*req.N)
	}
	if err := sgemm.CheckDims(req.M, req.N, req.K, len(req.A), len(req.B), len(req.C)); err != nil {
		return writeBadRequest(c, err.Error(), paramFor(err))
	}

	start := s.clock()
	s.gemm.Multiply(req.M, req.N, req.K, req.Alpha, req.A, req.B, req.Beta, req.C)
	elapsed := s.clock().Sub(start)

	s.log.Debug("gemm", "id", id, "m", req.M, "n", req.N, "k", req.K, "elapsed", elapsed)

	return writeJSON(c, http.StatusOK, GemmResponse{
		ID:        id,
		Object:    "gemm.result",
		M:         req.M,
		N:         req.N,
		C:         req.C,
		Blocks:    s.gemm.Blocks(),
		ElapsedMS: float64(elapsed) / float64(time.Millisecond),
	})
}

func (s *Server) checkSize(req GemmRequest) error {
	limit := int64(s.maxElements)
	m, n, k := int64(req.M), int64(req.N), int64(req.K)
	if m > limit || n > limit || k > limit {
		return ErrTooLarge
	}
	if m*k > limit || k*n > limit || m*n > limit {
		return ErrTooLarge
	}
	return nil
}

func (s *Server) handlePlan(c *echo.Context) error {
	resp := PlanResponse{
		Object:   "gemm.plan",
		Cache:    s.gemm.Cache(),
		Blocks:   s.gemm.Blocks(),
		Threads:  s.threads,
		Features: s.features,
	}
	if c.QueryParam("m") != "" || c.QueryParam("n") != "" || c.QueryParam("k") != "" {
		shape, err := s.shapePlan(c)
		if err != nil {
			return writeBadRequest(c, err.Error(), "m,n,k")
		}
		resp.Shape = shape
	}
	return writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, HealthResponse{Status: "ok", Version: version.String()})
}

func (s *Server) shapePlan(c *echo.Context) (*ShapePlan, error) {
	var dims [3]int
	for i, name := range []string{"m", "n", "k"} {
		v, err := strconv.Atoi(c.QueryParam(name))
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", name)
		}
		dims[i] = v
	}
	return NewShapePlan(s.gemm.Blocks(), dims[0], dims[1], dims[2]), nil
}

// NewShapePlan reports how a multiply of the given shape is cut into
// reduction, column and row blocks.
func NewShapePlan(b sgemm.BlockSizes, m, n, k int) *ShapePlan {
	return &ShapePlan{
		M:               m,
		N:               n,
		K:               k,
		ReductionBlocks: ceilDiv(k, b.KC),
		ColumnBlocks:    ceilDiv(n, b.NC),
		RowBlocks:       ceilDiv(m, b.MC),
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
