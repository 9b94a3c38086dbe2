// Copyright 2025 VeriGo Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the public API for the CPU compute backend.
//
// The CPU backend implements every tensor operation in pure Go, with
// cache blocking tuned to the SIMD capabilities detected at startup.
package cpu

import (
	internalcpu "github.com/verigo-ml/verigo/internal/backend/cpu"
	"github.com/verigo-ml/verigo/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}
