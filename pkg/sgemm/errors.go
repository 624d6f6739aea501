package sgemm

import "errors"

var (
	ErrNegativeDim       = errors.New("sgemm: negative dimension")
	ErrDimensionMismatch = errors.New("sgemm: buffer too small for dimensions")
	ErrCacheTooSmall     = errors.New("sgemm: cache sizes too small for one microkernel tile")
	ErrInvalidBlocks     = errors.New("sgemm: invalid block sizes")
	ErrNilExecutor       = errors.New("sgemm: nil executor")
)
