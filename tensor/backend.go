// Copyright 2025 VeriGo Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/verigo-ml/verigo/internal/tensor"
)

// Backend is the interface every compute backend implements: element-wise
// arithmetic, matrix multiplication, convolution, shape manipulation, and
// reductions over RawTensors.
//
// Backends are stateless with respect to tensors; all operations are
// out-of-place and allocate their results.
type Backend = tensor.Backend
