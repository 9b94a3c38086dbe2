// Copyright 2025 VeriGo Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the public API for the gradient-based
// optimizers VeriGo uses to tighten bounds.
package optim

import (
	"github.com/verigo-ml/verigo/internal/optim"
)

// Adam is the Adam optimizer over flat float64 variable groups.
type Adam = optim.Adam

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with defaults filled in for any
// unset configuration field.
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}
