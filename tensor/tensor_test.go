// Copyright 2025 VeriGo Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/verigo-ml/verigo/internal/backend/cpu"
	"github.com/verigo-ml/verigo/tensor"
)

// TestBackendInterface verifies that cpu.CPUBackend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.CPUBackend)(nil)
}

// TestRawTensorAPI verifies the RawTensor alias exposes the expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", raw.DType())
	}
	if raw.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", raw.Device())
	}
	if raw.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", raw.NumElements())
	}
	if raw.ByteSize() != 6*4 {
		t.Errorf("ByteSize() = %d, want %d", raw.ByteSize(), 6*4)
	}

	clone := raw.Clone()
	if clone == nil {
		t.Fatal("Clone() returned nil")
	}
	clone.AsFloat32()[0] = 1
	if raw.AsFloat32()[0] != 0 {
		t.Error("Clone() shares memory with the original")
	}
}

// TestCreationAndOps exercises the facade end to end: creation, seeded
// randomness, and element-wise arithmetic.
func TestCreationAndOps(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
	z := x.Add(y)
	for _, v := range z.Data() {
		if v != 1 {
			t.Fatalf("Add result = %v, want all ones", z.Data())
		}
	}

	tensor.Seed(99)
	a := tensor.Randn[float32](tensor.Shape{4}, backend)
	tensor.Seed(99)
	b := tensor.Randn[float32](tensor.Shape{4}, backend)
	for i := range a.Data() {
		if a.Data()[i] != b.Data()[i] {
			t.Fatal("Seed() did not make Randn deterministic")
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	shape, broadcast, err := tensor.BroadcastShapes(tensor.Shape{2, 1, 3}, tensor.Shape{4, 3})
	if err != nil {
		t.Fatalf("BroadcastShapes failed: %v", err)
	}
	if !broadcast {
		t.Error("expected broadcasting to be required")
	}
	if !shape.Equal(tensor.Shape{2, 4, 3}) {
		t.Errorf("broadcast shape = %v, want [2 4 3]", shape)
	}

	if _, _, err := tensor.BroadcastShapes(tensor.Shape{2, 3}, tensor.Shape{4, 3}); err == nil {
		t.Error("expected incompatible shapes to fail")
	}
}
