package cpu

import (
	"fmt"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// Reshape returns a view of the tensor with a new shape.
// The total element count must match; data is shared, not copied.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v to %v: element count mismatch", t.Shape(), newShape))
	}
	return t.WithShape(newShape)
}

// Transpose returns the transpose of a 2D tensor.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor) *tensor.RawTensor {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("transpose: only 2D tensors supported, got %dD", len(shape)))
	}
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	m, n := shape[0], shape[1]
	result := cpu.newResult(tensor.Shape{n, m}, t.DType(), "transpose")

	in := t.AsFloat32()
	out := result.AsFloat32()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			out[j*m+i] = in[i*n+j]
		}
	}
	return result
}
