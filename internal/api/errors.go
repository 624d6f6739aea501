package api

import (
	"errors"

	"github.com/samcharles93/sgemm/pkg/sgemm"
)

var ErrTooLarge = errors.New("request exceeds the element limit")

// paramFor names the request field an operand error points at.
func paramFor(err error) string {
	switch {
	case errors.Is(err, sgemm.ErrNegativeDim):
		return "m,n,k"
	case errors.Is(err, sgemm.ErrDimensionMismatch):
		return "a,b,c"
	case errors.Is(err, ErrTooLarge):
		return "m,n,k"
	default:
		return ""
	}
}
