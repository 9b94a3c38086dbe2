package nn

import (
	"testing"

	"github.com/verigo-ml/verigo/internal/backend/cpu"
	"github.com/verigo-ml/verigo/internal/tensor"
)

// TestLinear_Creation tests Linear layer creation.
func TestLinear_Creation(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(784, 128, backend)

	if layer.InFeatures() != 784 {
		t.Errorf("Expected in_features=784, got %d", layer.InFeatures())
	}
	if layer.OutFeatures() != 128 {
		t.Errorf("Expected out_features=128, got %d", layer.OutFeatures())
	}
	if !layer.Weight().Tensor().Shape().Equal(tensor.Shape{128, 784}) {
		t.Errorf("Weight shape: got %v, want [128 784]", layer.Weight().Tensor().Shape())
	}
	if !layer.Bias().Tensor().Shape().Equal(tensor.Shape{128}) {
		t.Errorf("Bias shape: got %v, want [128]", layer.Bias().Tensor().Shape())
	}
	if len(layer.Parameters()) != 2 {
		t.Errorf("Expected 2 parameters, got %d", len(layer.Parameters()))
	}
}

// TestLinear_Forward tests the affine map against hand-computed values.
func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(2, 2, backend)

	// y = W x + b with W = [[1, 2], [3, 4]], b = [0.5, -0.5]
	copy(layer.Weight().Tensor().Data(), []float32{1, 2, 3, 4})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, -0.5})

	input, err := tensor.FromSlice[float32]([]float32{1, 1}, tensor.Shape{1, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	out := layer.Forward(input)

	if !out.Shape().Equal(tensor.Shape{1, 2}) {
		t.Fatalf("Forward shape = %v, want [1 2]", out.Shape())
	}
	if out.At(0, 0) != 3.5 || out.At(0, 1) != 6.5 {
		t.Errorf("Forward = %v, want [3.5 6.5]", out.Data())
	}
}

// TestConv2D_Creation tests Conv2D layer creation.
func TestConv2D_Creation(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D(1, 16, 4, 4, 2, 1, backend)

	if conv.InChannels() != 1 {
		t.Errorf("Expected in_channels=1, got %d", conv.InChannels())
	}
	if conv.OutChannels() != 16 {
		t.Errorf("Expected out_channels=16, got %d", conv.OutChannels())
	}
	if ks := conv.KernelSize(); ks[0] != 4 || ks[1] != 4 {
		t.Errorf("Expected kernel_size=[4,4], got %v", ks)
	}
	if !conv.Weight().Tensor().Shape().Equal(tensor.Shape{16, 1, 4, 4}) {
		t.Errorf("Weight shape: got %v", conv.Weight().Tensor().Shape())
	}

	// (28 + 2*1 - 4)/2 + 1 = 14
	out := conv.ComputeOutputSize(28, 28)
	if out[0] != 14 || out[1] != 14 {
		t.Errorf("ComputeOutputSize(28, 28) = %v, want [14 14]", out)
	}
}

// TestConv2D_Forward tests convolution through the module interface.
func TestConv2D_Forward(t *testing.T) {
	backend := cpu.New()
	conv := NewConv2D(1, 1, 2, 2, 1, 0, backend)

	// kernel of ones, bias 0.5: output = patch sum + 0.5
	copy(conv.Weight().Tensor().Data(), []float32{1, 1, 1, 1})
	copy(conv.Bias().Tensor().Data(), []float32{0.5})

	input, err := tensor.FromSlice[float32](
		[]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	out := conv.Forward(input)

	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Forward shape = %v, want [1 1 2 2]", out.Shape())
	}
	expected := []float32{12.5, 16.5, 24.5, 28.5}
	for i, v := range out.Data() {
		if v != expected[i] {
			t.Errorf("Forward = %v, want %v", out.Data(), expected)
			break
		}
	}
}

// TestSequential_Forward tests module chaining.
func TestSequential_Forward(t *testing.T) {
	backend := cpu.New()
	model := NewSequential[*cpu.CPUBackend](
		NewLinear(4, 3, backend),
		NewReLU[*cpu.CPUBackend](),
		NewLinear(3, 2, backend),
	)

	if model.Len() != 3 {
		t.Errorf("Len() = %d, want 3", model.Len())
	}

	input := tensor.Randn[float32](tensor.Shape{5, 4}, backend)
	out := model.Forward(input)
	if !out.Shape().Equal(tensor.Shape{5, 2}) {
		t.Errorf("Forward shape = %v, want [5 2]", out.Shape())
	}

	// two layers with weight+bias each
	if len(model.Parameters()) != 4 {
		t.Errorf("Parameters() = %d, want 4", len(model.Parameters()))
	}
}

// TestSequential_StateDict tests state dict round-tripping.
func TestSequential_StateDict(t *testing.T) {
	backend := cpu.New()
	newModel := func() *Sequential[*cpu.CPUBackend] {
		return NewSequential[*cpu.CPUBackend](
			NewLinear(4, 3, backend),
			NewReLU[*cpu.CPUBackend](),
			NewLinear(3, 2, backend),
		)
	}

	tensor.Seed(1)
	src := newModel()
	tensor.Seed(2)
	dst := newModel()

	state := src.StateDict()
	// keys are "<index>.<param>"
	for _, key := range []string{"0.weight", "0.bias", "2.weight", "2.bias"} {
		if _, ok := state[key]; !ok {
			t.Fatalf("StateDict missing key %q (have %d keys)", key, len(state))
		}
	}

	if err := dst.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	srcW := src.StateDict()["0.weight"].AsFloat32()
	dstW := dst.StateDict()["0.weight"].AsFloat32()
	for i := range srcW {
		if srcW[i] != dstW[i] {
			t.Fatal("LoadStateDict did not copy weights")
		}
	}
}

// TestLoadStateDict_Validation tests rejection of malformed state dicts.
func TestLoadStateDict_Validation(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(4, 3, backend)

	// wrong weight shape
	bad, err := tensor.NewRaw(tensor.Shape{3, 5}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	biasRaw, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	err = layer.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": bad,
		"bias":   biasRaw,
	})
	if err == nil {
		t.Error("expected LoadStateDict to reject mismatched weight shape")
	}

	// missing bias
	good, _ := tensor.NewRaw(tensor.Shape{3, 4}, tensor.Float32, tensor.CPU)
	err = layer.LoadStateDict(map[string]*tensor.RawTensor{"weight": good})
	if err == nil {
		t.Error("expected LoadStateDict to reject missing bias")
	}
}

// TestFlatten_Module tests the flatten layer.
func TestFlatten_Module(t *testing.T) {
	backend := cpu.New()
	f := NewFlatten[*cpu.CPUBackend]()

	input := tensor.Zeros[float32](tensor.Shape{2, 3, 4}, backend)
	out := f.Forward(input)
	if !out.Shape().Equal(tensor.Shape{2, 12}) {
		t.Errorf("Flatten shape = %v, want [2 12]", out.Shape())
	}
}

// TestXavierInit checks initialized weights stay in the Xavier range.
func TestXavierInit(t *testing.T) {
	backend := cpu.New()
	tensor.Seed(5)
	layer := NewLinear(100, 50, backend)

	// limit = sqrt(6 / (100 + 50)) = 0.2
	const limit = 0.2
	for _, v := range layer.Weight().Tensor().Data() {
		if v < -limit || v > limit {
			t.Fatalf("weight %v outside Xavier range [-%v, %v]", v, limit, limit)
		}
	}
	for _, v := range layer.Bias().Tensor().Data() {
		if v != 0 {
			t.Fatal("bias must initialize to zero")
		}
	}
}
