package api

import (
	"github.com/samcharles93/sgemm/pkg/sgemm"
)

// GemmRequest asks for C = alpha*A*B + beta*C on row-major operands.
// C may be omitted when beta is zero.
type GemmRequest struct {
	M     int       `json:"m"`
	N     int       `json:"n"`
	K     int       `json:"k"`
	Alpha float32   `json:"alpha"`
	Beta  float32   `json:"beta"`
	A     []float32 `json:"a"`
	B     []float32 `json:"b"`
	C     []float32 `json:"c,omitempty"`
}

type GemmResponse struct {
	ID        string           `json:"id"`
	Object    string           `json:"object"`
	M         int              `json:"m"`
	N         int              `json:"n"`
	C         []float32        `json:"c"`
	Blocks    sgemm.BlockSizes `json:"blocks"`
	ElapsedMS float64          `json:"elapsed_ms"`
}

type PlanResponse struct {
	Object   string           `json:"object"`
	Cache    sgemm.CacheSizes `json:"cache"`
	Blocks   sgemm.BlockSizes `json:"blocks"`
	Threads  int              `json:"threads"`
	Features sgemm.Features   `json:"features"`
	Shape    *ShapePlan       `json:"shape,omitempty"`
}

type ShapePlan struct {
	M               int `json:"m"`
	N               int `json:"n"`
	K               int `json:"k"`
	ReductionBlocks int `json:"reduction_blocks"`
	ColumnBlocks    int `json:"column_blocks"`
	RowBlocks       int `json:"row_blocks"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
