// Package nn implements the neural network modules Verigo can verify.
//
// The building blocks are the feed-forward layers bound propagation
// understands:
//   - Module interface: base interface for all components
//   - Parameter: named weight tensors
//   - Linear: fully connected layer
//   - Conv2D: 2D convolutional layer
//   - ReLU: rectified linear activation
//   - Flatten: collapse spatial dimensions
//   - Sequential: container for stacking layers
//
// Design follows PyTorch's nn.Module, adapted for Go generics.
package nn

import (
	"github.com/verigo-ml/verigo/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules compose into architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	// Returns nil for modules without parameters (e.g. activations).
	Parameters() []*Parameter[B]
}
