package cpu

import (
	"fmt"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Uses a cache-blocked kernel with the block size chosen at backend
// construction from the detected CPU features.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := cpu.newResult(tensor.Shape{m, n}, a.DType(), "matmul")

	switch a.DType() {
	case tensor.Float32:
		matmulBlocked(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.blockSize)
	case tensor.Float64:
		matmulBlocked(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, cpu.blockSize)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmulBlocked computes C[i,j] = sum_k A[i,k] * B[k,j] with i/k blocking.
// The inner j loop is a dense axpy over contiguous rows of B, which the
// compiler auto-vectorizes.
func matmulBlocked[T float32 | float64](c, a, b []T, m, k, n, block int) {
	for i := range c {
		c[i] = 0
	}

	for i0 := 0; i0 < m; i0 += block {
		iMax := i0 + block
		if iMax > m {
			iMax = m
		}
		for k0 := 0; k0 < k; k0 += block {
			kMax := k0 + block
			if kMax > k {
				kMax = k
			}
			for i := i0; i < iMax; i++ {
				cRow := c[i*n : (i+1)*n]
				for kk := k0; kk < kMax; kk++ {
					aik := a[i*k+kk]
					if aik == 0 {
						continue
					}
					bRow := b[kk*n : (kk+1)*n]
					for j := range cRow {
						cRow[j] += aik * bRow[j]
					}
				}
			}
		}
	}
}
