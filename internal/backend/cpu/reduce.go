package cpu

import (
	"fmt"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// reducedShape computes the output shape of a reduction along dim.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	out := tensor.Shape{}
	for i, d := range shape {
		if i == dim {
			if keepDim {
				out = append(out, 1)
			}
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}

// dimSpans splits a shape around dim into (outer, size, inner) so that a
// flat index decomposes as (o*size + k)*inner + i.
func dimSpans(shape tensor.Shape, dim int) (outer, size, inner int) {
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("reduce: dimension %d out of range for shape %v", dim, shape))
	}
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

// SumDim sums along a dimension.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("sum_dim: unsupported dtype %s", x.DType()))
	}

	outer, size, inner := dimSpans(x.Shape(), dim)
	result := cpu.newResult(reducedShape(x.Shape(), dim, keepDim), tensor.Float32, "sum_dim")

	in := x.AsFloat32()
	out := result.AsFloat32()
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			sum := float32(0)
			for k := 0; k < size; k++ {
				sum += in[(o*size+k)*inner+i]
			}
			out[o*inner+i] = sum
		}
	}
	return result
}

// Argmax returns the index of the maximum value along a dimension as an
// int64 tensor. Ties resolve to the lowest index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	outer, size, inner := dimSpans(x.Shape(), dim)
	result := cpu.newResult(reducedShape(x.Shape(), dim, false), tensor.Int64, "argmax")

	in := x.AsFloat32()
	out := result.AsInt64()
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			best := in[o*size*inner+i]
			bestIdx := int64(0)
			for k := 1; k < size; k++ {
				v := in[(o*size+k)*inner+i]
				if v > best {
					best = v
					bestIdx = int64(k)
				}
			}
			out[o*inner+i] = bestIdx
		}
	}
	return result
}
