//go:build amd64 && goexperiment.simd && amd64.v3

package sgemm

import "simd/archsimd"

// vec4 is one 128-bit register of four float32 lanes.
type vec4 = archsimd.Float32x4

const simdBackend = "archsimd-f32x4"

func zeroVec() vec4 {
	var v vec4
	return v
}

func splat(x float32) vec4 {
	return archsimd.BroadcastFloat32x4(x)
}

// loadVec reads s[0:4]. s must hold at least four elements.
func loadVec(s []float32) vec4 {
	return archsimd.LoadFloat32x4Slice(s)
}

// loadVecAligned reads an exact four element window.
func loadVecAligned(p *[4]float32) vec4 {
	return archsimd.LoadFloat32x4(p)
}

// loadVecPart reads the first n (1..3) lanes of s and zeroes the rest.
func loadVecPart(s []float32, n int) vec4 {
	var tmp [4]float32
	copy(tmp[:n], s[:n])
	return archsimd.LoadFloat32x4(&tmp)
}

func storeVec(s []float32, v vec4) {
	v.StoreSlice(s)
}

// storeVecPart writes only the first n (1..3) lanes of v.
func storeVecPart(s []float32, v vec4, n int) {
	var tmp [4]float32
	v.StoreSlice(tmp[:])
	copy(s[:n], tmp[:n])
}

func mul(a, b vec4) vec4 {
	return a.Mul(b)
}

// mulAdd returns a*b + c with a single rounding.
func mulAdd(a, b, c vec4) vec4 {
	return a.MulAdd(b, c)
}
