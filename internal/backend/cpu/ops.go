package cpu

import (
	"fmt"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// binaryOp applies op element-wise with NumPy-style broadcasting.
func (cpu *CPUBackend) binaryOp(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtypes %s, %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := cpu.newResult(outShape, tensor.Float32, name)
	out := result.AsFloat32()
	ad := a.AsFloat32()
	bd := b.AsFloat32()

	if !needsBroadcast {
		for i := range out {
			out[i] = op(ad[i], bd[i])
		}
		return result
	}

	broadcastApply(out, ad, bd, outShape, a.Shape(), b.Shape(), op)
	return result
}

// broadcastApply walks the output index space and maps each position back to
// the (possibly broadcast) operand offsets.
func broadcastApply(out, a, b []float32, outShape, aShape, bShape tensor.Shape, op func(x, y float32) float32) {
	aStrides := broadcastStrides(outShape, aShape)
	bStrides := broadcastStrides(outShape, bShape)

	idx := make([]int, len(outShape))
	for i := range out {
		aOff, bOff := 0, 0
		for d := range idx {
			aOff += idx[d] * aStrides[d]
			bOff += idx[d] * bStrides[d]
		}
		out[i] = op(a[aOff], b[bOff])

		// Increment the multi-dimensional index (row-major order).
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
}

// broadcastStrides returns per-output-dimension strides into an operand,
// with zero stride on broadcast dimensions.
func broadcastStrides(outShape, inShape tensor.Shape) []int {
	inStrides := inShape.ComputeStrides()
	strides := make([]int, len(outShape))
	offset := len(outShape) - len(inShape)
	for d := range outShape {
		if d < offset {
			continue // dimension absent in operand
		}
		if inShape[d-offset] == 1 && outShape[d] != 1 {
			continue // broadcast dimension
		}
		strides[d] = inStrides[d-offset]
	}
	return strides
}

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, func(x, y float32) float32 { return x / y })
}

// Minimum computes the element-wise minimum.
func (cpu *CPUBackend) Minimum(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("minimum", a, b, func(x, y float32) float32 {
		if x < y {
			return x
		}
		return y
	})
}

// Maximum computes the element-wise maximum.
func (cpu *CPUBackend) Maximum(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("maximum", a, b, func(x, y float32) float32 {
		if x > y {
			return x
		}
		return y
	})
}
