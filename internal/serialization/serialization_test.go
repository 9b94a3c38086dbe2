package serialization

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/verigo-ml/verigo/internal/tensor"
)

func testTensor(t *testing.T, shape tensor.Shape, fill float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = fill + float32(i)
	}
	return raw
}

// TestArtifactRoundTrip verifies write-then-read preserves everything.
func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.veri")

	tensors := []NamedTensor{
		{Name: "alpha", Tensor: testTensor(t, tensor.Shape{2, 3}, 1)},
		{Name: "beta", Tensor: testTensor(t, tensor.Shape{4}, -5)},
	}
	metadata := map[string]string{"model": "test", "epoch": "3"}

	if err := WriteArtifact(path, KindWeights, tensors, metadata); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}

	artifact, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact failed: %v", err)
	}

	if artifact.Kind() != KindWeights {
		t.Errorf("Kind() = %q, want %q", artifact.Kind(), KindWeights)
	}
	if artifact.Header.Metadata["epoch"] != "3" {
		t.Errorf("metadata not preserved: %v", artifact.Header.Metadata)
	}

	alpha := artifact.Tensor("alpha")
	if alpha == nil {
		t.Fatal("tensor 'alpha' missing")
	}
	if !alpha.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("alpha shape = %v, want [2 3]", alpha.Shape())
	}
	want := tensors[0].Tensor.AsFloat32()
	got := alpha.AsFloat32()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("alpha data = %v, want %v", got, want)
		}
	}

	if artifact.Tensor("gamma") != nil {
		t.Error("expected nil for absent tensor name")
	}
}

// TestCorruptedDataDetected verifies the checksum catches bit flips.
func TestCorruptedDataDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.veri")
	tensors := []NamedTensor{{Name: "w", Tensor: testTensor(t, tensor.Shape{8}, 0)}}
	if err := WriteArtifact(path, KindWeights, tensors, nil); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}

	// flip one byte in the data section (the tail of the file)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := ReadArtifact(path); err == nil {
		t.Error("expected checksum mismatch to fail the read")
	}
}

// TestInvalidMagicRejected verifies non-.veri files fail fast.
func TestInvalidMagicRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.veri")
	if err := os.WriteFile(path, []byte("GGUFxxxxxxxxxxxxxxxx"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := ReadArtifact(path); err == nil {
		t.Error("expected invalid magic to fail")
	}
}

// TestStateDictRoundTrip verifies the weights convenience wrappers.
func TestStateDictRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.veri")
	state := map[string]*tensor.RawTensor{
		"0.weight": testTensor(t, tensor.Shape{3, 2}, 1),
		"0.bias":   testTensor(t, tensor.Shape{3}, 0),
	}

	if err := WriteStateDict(path, state); err != nil {
		t.Fatalf("WriteStateDict failed: %v", err)
	}

	artifact, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact failed: %v", err)
	}
	if artifact.Kind() != KindWeights {
		t.Errorf("Kind() = %q, want %q", artifact.Kind(), KindWeights)
	}

	loaded := artifact.StateDict()
	if len(loaded) != 2 {
		t.Fatalf("StateDict has %d entries, want 2", len(loaded))
	}
	if !loaded["0.weight"].Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("0.weight shape = %v", loaded["0.weight"].Shape())
	}
}

// TestResultsOrdering verifies baseline results keep their order.
func TestResultsOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.veri")
	results := []*tensor.RawTensor{
		testTensor(t, tensor.Shape{1}, 10),
		testTensor(t, tensor.Shape{1}, 20),
		testTensor(t, tensor.Shape{1}, 30),
	}

	if err := WriteResults(path, results); err != nil {
		t.Fatalf("WriteResults failed: %v", err)
	}

	artifact, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact failed: %v", err)
	}
	if artifact.Kind() != KindBaseline {
		t.Errorf("Kind() = %q, want %q", artifact.Kind(), KindBaseline)
	}

	loaded := artifact.Results()
	if len(loaded) != 3 {
		t.Fatalf("Results has %d entries, want 3", len(loaded))
	}
	for i, want := range []float32{10, 20, 30} {
		if loaded[i].AsFloat32()[0] != want {
			t.Errorf("result %d = %v, want %v", i, loaded[i].AsFloat32()[0], want)
		}
	}
}

// TestReadMissingFile verifies the not-exist error surfaces unwrapped
// enough for errors.Is checks.
func TestReadMissingFile(t *testing.T) {
	_, err := ReadArtifact(filepath.Join(t.TempDir(), "absent.veri"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got: %v", err)
	}
}
