package cpu

import (
	"testing"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// Helper to create a float32 RawTensor with the given data.
func rawF32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

// Helper to check float32 slices are equal within epsilon.
func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-5
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > epsilon {
			return false
		}
	}
	return true
}

// TestCPUBackend_New tests backend creation.
func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend == nil {
		t.Fatal("New() returned nil")
	}
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Expected device CPU, got %v", backend.Device())
	}
	if backend.Description() == "" {
		t.Error("Description() is empty")
	}
}

// TestCPUBackend_Add tests element-wise addition.
func TestCPUBackend_Add(t *testing.T) {
	backend := New()

	t.Run("SameShape", func(t *testing.T) {
		a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		b := rawF32(t, tensor.Shape{2, 3}, []float32{10, 11, 12, 13, 14, 15})

		result := backend.Add(a, b)
		expected := []float32{11, 13, 15, 17, 19, 21}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Add result = %v, want %v", result.AsFloat32(), expected)
		}
	})

	t.Run("Broadcast", func(t *testing.T) {
		// [2, 3] + [3] broadcasts the row
		a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		b := rawF32(t, tensor.Shape{3}, []float32{10, 20, 30})

		result := backend.Add(a, b)
		if !result.Shape().Equal(tensor.Shape{2, 3}) {
			t.Fatalf("Add broadcast shape = %v, want [2 3]", result.Shape())
		}
		expected := []float32{11, 22, 33, 14, 25, 36}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Add result = %v, want %v", result.AsFloat32(), expected)
		}
	})

	t.Run("BroadcastScalarShape", func(t *testing.T) {
		// [2, 2] * [1] broadcasts the single element
		a := rawF32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
		b := rawF32(t, tensor.Shape{1}, []float32{2})

		result := backend.Mul(a, b)
		expected := []float32{2, 4, 6, 8}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Mul result = %v, want %v", result.AsFloat32(), expected)
		}
	})
}

// TestCPUBackend_MinimumMaximum tests element-wise min/max.
func TestCPUBackend_MinimumMaximum(t *testing.T) {
	backend := New()
	a := rawF32(t, tensor.Shape{4}, []float32{1, -2, 3, -4})
	b := rawF32(t, tensor.Shape{4}, []float32{0, 0, 0, 0})

	minResult := backend.Minimum(a, b)
	if !float32SliceEqual(minResult.AsFloat32(), []float32{0, -2, 0, -4}) {
		t.Errorf("Minimum result = %v", minResult.AsFloat32())
	}

	maxResult := backend.Maximum(a, b)
	if !float32SliceEqual(maxResult.AsFloat32(), []float32{1, 0, 3, 0}) {
		t.Errorf("Maximum result = %v", maxResult.AsFloat32())
	}
}

// TestCPUBackend_UnaryOps tests Neg, Abs, ReLU, and Clamp.
func TestCPUBackend_UnaryOps(t *testing.T) {
	backend := New()
	x := rawF32(t, tensor.Shape{4}, []float32{-2, -0.5, 0.5, 2})

	if got := backend.Neg(x).AsFloat32(); !float32SliceEqual(got, []float32{2, 0.5, -0.5, -2}) {
		t.Errorf("Neg = %v", got)
	}
	if got := backend.Abs(x).AsFloat32(); !float32SliceEqual(got, []float32{2, 0.5, 0.5, 2}) {
		t.Errorf("Abs = %v", got)
	}
	if got := backend.ReLU(x).AsFloat32(); !float32SliceEqual(got, []float32{0, 0, 0.5, 2}) {
		t.Errorf("ReLU = %v", got)
	}
	if got := backend.Clamp(x, -1, 1).AsFloat32(); !float32SliceEqual(got, []float32{-1, -0.5, 0.5, 1}) {
		t.Errorf("Clamp = %v", got)
	}
}

// TestCPUBackend_ScalarOps tests AddScalar and MulScalar.
func TestCPUBackend_ScalarOps(t *testing.T) {
	backend := New()
	x := rawF32(t, tensor.Shape{3}, []float32{1, 2, 3})

	if got := backend.AddScalar(x, 0.5).AsFloat32(); !float32SliceEqual(got, []float32{1.5, 2.5, 3.5}) {
		t.Errorf("AddScalar = %v", got)
	}
	if got := backend.MulScalar(x, -2).AsFloat32(); !float32SliceEqual(got, []float32{-2, -4, -6}) {
		t.Errorf("MulScalar = %v", got)
	}
}

// TestCPUBackend_MatMul tests 2D matrix multiplication.
func TestCPUBackend_MatMul(t *testing.T) {
	backend := New()

	t.Run("Known", func(t *testing.T) {
		// [2x3] @ [3x2]
		a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		b := rawF32(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

		result := backend.MatMul(a, b)
		if !result.Shape().Equal(tensor.Shape{2, 2}) {
			t.Fatalf("MatMul shape = %v, want [2 2]", result.Shape())
		}
		expected := []float32{58, 64, 139, 154}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("MatMul result = %v, want %v", result.AsFloat32(), expected)
		}
	})

	t.Run("Identity", func(t *testing.T) {
		a := rawF32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
		eye := rawF32(t, tensor.Shape{2, 2}, []float32{1, 0, 0, 1})

		result := backend.MatMul(a, eye)
		if !float32SliceEqual(result.AsFloat32(), a.AsFloat32()) {
			t.Errorf("A @ I = %v, want %v", result.AsFloat32(), a.AsFloat32())
		}
	})

	t.Run("ShapeMismatchPanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on inner dimension mismatch")
			}
		}()
		a := rawF32(t, tensor.Shape{2, 3}, make([]float32, 6))
		b := rawF32(t, tensor.Shape{2, 2}, make([]float32, 4))
		backend.MatMul(a, b)
	})
}

// TestCPUBackend_Conv2D tests convolution against hand-computed outputs.
func TestCPUBackend_Conv2D(t *testing.T) {
	backend := New()

	t.Run("Simple2x2Kernel", func(t *testing.T) {
		// 1x1x3x3 input, 1x1x2x2 kernel of ones, stride 1, no padding:
		// each output is the sum of a 2x2 patch.
		input := rawF32(t, tensor.Shape{1, 1, 3, 3}, []float32{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
		})
		kernel := rawF32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})

		result := backend.Conv2D(input, kernel, 1, 0)
		if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
			t.Fatalf("Conv2D shape = %v, want [1 1 2 2]", result.Shape())
		}
		expected := []float32{12, 16, 24, 28}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Conv2D result = %v, want %v", result.AsFloat32(), expected)
		}
	})

	t.Run("StrideAndPadding", func(t *testing.T) {
		// stride 2, padding 1 on a 4x4 input halves the spatial size
		input := rawF32(t, tensor.Shape{1, 1, 4, 4}, make([]float32, 16))
		input.AsFloat32()[5] = 1 // single nonzero at (1, 1)
		kernel := rawF32(t, tensor.Shape{1, 1, 3, 3}, []float32{
			1, 1, 1,
			1, 1, 1,
			1, 1, 1,
		})

		result := backend.Conv2D(input, kernel, 2, 1)
		if !result.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
			t.Fatalf("Conv2D shape = %v, want [1 1 2 2]", result.Shape())
		}
		// every one of the four 3x3 windows covers position (1, 1)
		expected := []float32{1, 1, 1, 1}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Conv2D result = %v, want %v", result.AsFloat32(), expected)
		}
	})

	t.Run("MultiChannel", func(t *testing.T) {
		// 2 input channels summed by a kernel of ones
		input := rawF32(t, tensor.Shape{1, 2, 2, 2}, []float32{
			1, 2, 3, 4, // channel 0
			10, 20, 30, 40, // channel 1
		})
		kernel := rawF32(t, tensor.Shape{1, 2, 1, 1}, []float32{1, 1})

		result := backend.Conv2D(input, kernel, 1, 0)
		expected := []float32{11, 22, 33, 44}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Conv2D result = %v, want %v", result.AsFloat32(), expected)
		}
	})
}

// TestCPUBackend_Transpose tests 2D transposition.
func TestCPUBackend_Transpose(t *testing.T) {
	backend := New()
	a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Transpose(a)
	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Transpose shape = %v, want [3 2]", result.Shape())
	}
	expected := []float32{1, 4, 2, 5, 3, 6}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Transpose result = %v, want %v", result.AsFloat32(), expected)
	}
}

// TestCPUBackend_Reshape tests reshaping preserves data.
func TestCPUBackend_Reshape(t *testing.T) {
	backend := New()
	a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Reshape(a, tensor.Shape{3, 2})
	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Reshape shape = %v, want [3 2]", result.Shape())
	}
	if !float32SliceEqual(result.AsFloat32(), a.AsFloat32()) {
		t.Error("Reshape changed the data")
	}
}

// TestCPUBackend_SumDim tests dimension reduction.
func TestCPUBackend_SumDim(t *testing.T) {
	backend := New()
	a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	t.Run("Dim0", func(t *testing.T) {
		result := backend.SumDim(a, 0, false)
		if !result.Shape().Equal(tensor.Shape{3}) {
			t.Fatalf("SumDim shape = %v, want [3]", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{5, 7, 9}) {
			t.Errorf("SumDim(0) = %v, want [5 7 9]", result.AsFloat32())
		}
	})

	t.Run("Dim1KeepDim", func(t *testing.T) {
		result := backend.SumDim(a, 1, true)
		if !result.Shape().Equal(tensor.Shape{2, 1}) {
			t.Fatalf("SumDim shape = %v, want [2 1]", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{6, 15}) {
			t.Errorf("SumDim(1) = %v, want [6 15]", result.AsFloat32())
		}
	})
}

// TestCPUBackend_Argmax tests index reduction.
func TestCPUBackend_Argmax(t *testing.T) {
	backend := New()
	a := rawF32(t, tensor.Shape{2, 3}, []float32{1, 9, 3, 8, 5, 8})

	result := backend.Argmax(a, 1)
	if !result.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("Argmax shape = %v, want [2]", result.Shape())
	}
	got := result.AsInt64()
	// ties resolve to the lowest index
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("Argmax = %v, want [1 0]", got)
	}
}
