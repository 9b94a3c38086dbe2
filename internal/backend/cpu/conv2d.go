package cpu

import (
	"fmt"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// Conv2D performs 2D convolution.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// where:
//
//	H_out = (H + 2*padding - K_h) / stride + 1
//	W_out = (W + 2*padding - K_w) / stride + 1
//
// The kernel is applied directly (no im2col buffer); the models verified
// here are small enough that the direct form wins on memory traffic.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	n := inputShape[0]
	cIn := inputShape[1]
	h := inputShape[2]
	w := inputShape[3]
	cOut := kernelShape[0]
	kh := kernelShape[2]
	kw := kernelShape[3]

	if cIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kernelShape[1]))
	}

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions %dx%d (check stride/padding)", hOut, wOut))
	}

	if input.DType() != tensor.Float32 || kernel.DType() != tensor.Float32 {
		panic(fmt.Sprintf("conv2d: unsupported dtypes %s, %s", input.DType(), kernel.DType()))
	}

	output := cpu.newResult(tensor.Shape{n, cOut, hOut, wOut}, tensor.Float32, "conv2d")

	in := input.AsFloat32()
	ker := kernel.AsFloat32()
	out := output.AsFloat32()

	for b := 0; b < n; b++ {
		for co := 0; co < cOut; co++ {
			for ho := 0; ho < hOut; ho++ {
				for wo := 0; wo < wOut; wo++ {
					sum := float32(0)
					hBase := ho*stride - padding
					wBase := wo*stride - padding
					for ci := 0; ci < cIn; ci++ {
						for ki := 0; ki < kh; ki++ {
							hi := hBase + ki
							if hi < 0 || hi >= h {
								continue
							}
							inRow := in[((b*cIn+ci)*h+hi)*w:]
							kerRow := ker[((co*cIn+ci)*kh+ki)*kw:]
							for kj := 0; kj < kw; kj++ {
								wi := wBase + kj
								if wi < 0 || wi >= w {
									continue
								}
								sum += inRow[wi] * kerRow[kj]
							}
						}
					}
					out[((b*cOut+co)*hOut+ho)*wOut+wo] = sum
				}
			}
		}
	}

	return output
}
