// Copyright 2025 VeriGo Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/verigo-ml/verigo/internal/tensor"
)

// RawTensor is the low-level tensor representation: a flat byte buffer
// plus shape, stride, and runtime type information. It is the currency
// of the serialization layer and the baseline test harness.
type RawTensor = tensor.RawTensor

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}
