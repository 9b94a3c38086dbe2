package nn

import (
	"github.com/verigo-ml/verigo/internal/tensor"
)

// Flatten collapses all dimensions after the batch dimension:
// [N, C, H, W] -> [N, C*H*W].
//
// Used between convolutional and fully connected layers.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a new Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward flattens everything after the first dimension.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Flatten()
}

// Parameters returns nil (Flatten has no trainable parameters).
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns a string representation of the module.
func (f *Flatten[B]) String() string {
	return "Flatten()"
}
