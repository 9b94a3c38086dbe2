// Package cpu implements the CPU backend for the Verigo tensor API.
package cpu

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// Kernel blocking is tuned at construction time from the detected CPU
// features: wider vector units get larger matmul blocks.
type CPUBackend struct {
	device    tensor.Device
	blockSize int
	desc      string
}

// New creates a new CPU backend.
func New() *CPUBackend {
	block := 32
	simd := "scalar"
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		block = 128
		simd = "AVX-512"
	case cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3):
		block = 64
		simd = "AVX2+FMA"
	case cpuid.CPU.Supports(cpuid.AVX):
		block = 64
		simd = "AVX"
	}

	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = "unknown CPU"
	}

	return &CPUBackend{
		device:    tensor.CPU,
		blockSize: block,
		desc:      fmt.Sprintf("%s (%s, %d cores)", brand, simd, cpuid.CPU.LogicalCores),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Description returns a human-readable description of the detected CPU.
func (cpu *CPUBackend) Description() string {
	return cpu.desc
}

// newResult allocates a result tensor, panicking on allocation failure.
// Shape validation upstream should prevent errors here.
func (cpu *CPUBackend) newResult(shape tensor.Shape, dtype tensor.DataType, op string) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}
