package sgemm

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Features describes the vector support relevant to the microkernel.
type Features struct {
	Arch    string `json:"arch"`
	Backend string `json:"backend"`
	FMA     bool   `json:"fma"`
	AVX     bool   `json:"avx"`
	AVX2    bool   `json:"avx2"`
	NEON    bool   `json:"neon"`
}

// DetectFeatures reports host CPU features and the vector backend this
// binary was built with.
func DetectFeatures() Features {
	f := Features{
		Arch:    runtime.GOARCH,
		Backend: simdBackend,
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		f.FMA = cpu.X86.HasFMA
		f.AVX = cpu.X86.HasAVX
		f.AVX2 = cpu.X86.HasAVX2
	case "arm64":
		f.NEON = cpu.ARM64.HasASIMD
		f.FMA = cpu.ARM64.HasASIMD
	}
	return f
}
