package bound_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verigo-ml/verigo/internal/backend/cpu"
	"github.com/verigo-ml/verigo/internal/bound"
	"github.com/verigo-ml/verigo/internal/nn"
	"github.com/verigo-ml/verigo/internal/tensor"
	"github.com/verigo-ml/verigo/testutil"
)

// computeSeededBounds rebuilds the model and input from the seed and
// returns the bound tensors for every method, in a fixed order.
func computeSeededBounds(t *testing.T, seed int64) []*tensor.RawTensor {
	t.Helper()
	testutil.SetSeed(seed)

	be := cpu.New()
	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(6, 8, be),
		nn.NewReLU[*cpu.CPUBackend](),
		nn.NewLinear(8, 4, be),
		nn.NewReLU[*cpu.CPUBackend](),
		nn.NewLinear(4, 3, be),
	)
	bm, err := bound.New(model, tensor.Shape{6}, be)
	require.NoError(t, err)
	bm.SetBoundOptions(bound.Options{Iterations: 8, LrAlpha: 0.1})

	input := tensor.Rand[float32](tensor.Shape{2, 6}, be)

	var out []*tensor.RawTensor
	for _, method := range []bound.Method{
		bound.MethodIBP,
		bound.MethodCROWNIBP,
		bound.MethodCROWN,
		bound.MethodCROWNOptimized,
	} {
		res, err := bm.ComputeBounds(bound.Request[*cpu.CPUBackend]{
			Input:        input,
			Perturbation: bound.NewPerturbationLinf(0.1),
			Method:       method,
		})
		require.NoError(t, err, method.String())
		out = append(out, res.Lower.Raw(), res.Upper.Raw())
	}
	return out
}

// TestBoundsDeterministicUnderSeed verifies a full pipeline run is
// reproducible: same seed, same model, same bounds.
func TestBoundsDeterministicUnderSeed(t *testing.T) {
	first := computeSeededBounds(t, 1234)
	second := computeSeededBounds(t, 1234)

	require.Len(t, second, len(first))
	for i := range first {
		testutil.AssertTensorsClose(t, first[i], second[i])
	}
}
