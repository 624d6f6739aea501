//go:build !(amd64 && goexperiment.simd && amd64.v3)

package sgemm

import "math"

// vec4 is a portable stand-in for one 4-lane float32 register.
type vec4 [4]float32

const simdBackend = "generic-f32x4"

func zeroVec() vec4 {
	return vec4{}
}

func splat(x float32) vec4 {
	return vec4{x, x, x, x}
}

// loadVec reads s[0:4]. s must hold at least four elements.
func loadVec(s []float32) vec4 {
	return vec4(s[:4])
}

// loadVecAligned reads an exact four element window.
func loadVecAligned(p *[4]float32) vec4 {
	return vec4(*p)
}

// loadVecPart reads the first n (1..3) lanes of s and zeroes the rest.
func loadVecPart(s []float32, n int) vec4 {
	var v vec4
	copy(v[:n], s[:n])
	return v
}

func storeVec(s []float32, v vec4) {
	copy(s[:4], v[:])
}

// storeVecPart writes only the first n (1..3) lanes of v.
func storeVecPart(s []float32, v vec4, n int) {
	copy(s[:n], v[:n])
}

func mul(a, b vec4) vec4 {
	return vec4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

// mulAdd returns a*b + c per lane. The product of two float32 values is
// exact in float64, so only the final conversions round.
func mulAdd(a, b, c vec4) vec4 {
	return vec4{
		fma32(a[0], b[0], c[0]),
		fma32(a[1], b[1], c[1]),
		fma32(a[2], b[2], c[2]),
		fma32(a[3], b[3], c[3]),
	}
}

func fma32(a, b, c float32) float32 {
	return float32(math.FMA(float64(a), float64(b), float64(c)))
}
