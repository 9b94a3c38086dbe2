package cpu

import (
	"fmt"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// unaryOp applies op element-wise to a float32 tensor.
func (cpu *CPUBackend) unaryOp(name string, x *tensor.RawTensor, op func(v float32) float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	result := cpu.newResult(x.Shape(), tensor.Float32, name)
	out := result.AsFloat32()
	in := x.AsFloat32()
	for i := range out {
		out[i] = op(in[i])
	}
	return result
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s := float32(scalar)
	return cpu.unaryOp("add_scalar", x, func(v float32) float32 { return v + s })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s := float32(scalar)
	return cpu.unaryOp("mul_scalar", x, func(v float32) float32 { return v * s })
}

// Neg negates every element.
func (cpu *CPUBackend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("neg", x, func(v float32) float32 { return -v })
}

// Abs computes the element-wise absolute value.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("abs", x, func(v float32) float32 {
		if v < 0 {
			return -v
		}
		return v
	})
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", x, func(v float32) float32 {
		if v < 0 {
			return 0
		}
		return v
	})
}

// Clamp limits every element to [lo, hi].
func (cpu *CPUBackend) Clamp(x *tensor.RawTensor, lo, hi float64) *tensor.RawTensor {
	l, h := float32(lo), float32(hi)
	return cpu.unaryOp("clamp", x, func(v float32) float32 {
		if v < l {
			return l
		}
		if v > h {
			return h
		}
		return v
	})
}
