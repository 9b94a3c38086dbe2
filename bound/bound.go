// Copyright 2025 VeriGo Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package bound provides the public API for neural network bound
// propagation: wrap a model in a BoundedModule and compute provable
// output bounds under an input perturbation.
//
// Example:
//
//	backend := cpu.New()
//	bm, err := bound.New(model, tensor.Shape{1, 28, 28}, backend)
//	if err != nil {
//	    return err
//	}
//	res, err := bm.ComputeBounds(bound.Request[*cpu.CPUBackend]{
//	    Input:        images,
//	    Perturbation: bound.NewPerturbationLinf(0.3),
//	    Method:       bound.MethodCROWN,
//	})
package bound

import (
	"github.com/verigo-ml/verigo/internal/bound"
	"github.com/verigo-ml/verigo/internal/nn"
	"github.com/verigo-ml/verigo/internal/tensor"
)

// Method selects the bound propagation algorithm.
type Method = bound.Method

// Supported methods, from loosest/fastest to tightest/slowest.
const (
	MethodIBP            Method = bound.MethodIBP
	MethodCROWNIBP       Method = bound.MethodCROWNIBP
	MethodCROWN          Method = bound.MethodCROWN
	MethodCROWNOptimized Method = bound.MethodCROWNOptimized
)

// ParseMethod maps a method name to its Method value.
func ParseMethod(name string) (Method, error) {
	return bound.ParseMethod(name)
}

// Perturbation describes the allowed input variation: an Lp-norm ball
// around the nominal input.
type Perturbation = bound.Perturbation

// NewPerturbationLinf creates an Linf-ball perturbation of radius eps.
func NewPerturbationLinf(eps float64) Perturbation {
	return bound.NewPerturbationLinf(eps)
}

// NewPerturbationL2 creates an L2-ball perturbation of radius eps.
func NewPerturbationL2(eps float64) Perturbation {
	return bound.NewPerturbationL2(eps)
}

// Options controls the alpha-CROWN optimization loop.
type Options = bound.Options

// Request describes one bound computation.
type Request[B tensor.Backend] = bound.Request[B]

// Result holds the computed bounds.
type Result[B tensor.Backend] = bound.Result[B]

// LinearBounds exposes the final linear coefficients of a backward
// bound computation.
type LinearBounds = bound.LinearBounds

// BoundedModule wraps a Sequential model for bound computation.
type BoundedModule[B tensor.Backend] = bound.BoundedModule[B]

// New wraps model for bound computation. inputShape is the per-sample
// input shape without the batch dimension.
func New[B tensor.Backend](model *nn.Sequential[B], inputShape tensor.Shape, backend B) (*BoundedModule[B], error) {
	return bound.New(model, inputShape, backend)
}
