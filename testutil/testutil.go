// Package testutil provides the reproducibility harness shared by tests
// across the repository: global RNG seeding, golden baseline artifacts
// recorded once and verified on later runs, and tolerance-based numeric
// comparison.
//
// The intended flow for a regression test:
//
//	testutil.SetSeed(1234)
//	results := computeSomething()
//	testutil.VerifyAgainstBaseline(t, "testdata/something.veri", results)
//
// and a one-time recording step (typically behind a -record flag in the
// test binary, or a small generator program) that calls RecordBaseline
// with the same results.
package testutil

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verigo-ml/verigo/internal/serialization"
	"github.com/verigo-ml/verigo/internal/tensor"
)

// Default tolerances for numeric comparison, matching the usual allclose
// semantics: values a and b compare equal when |a-b| <= atol + rtol*|b|.
const (
	DefaultRTol = 1e-5
	DefaultATol = 1e-8
)

// SetSeed seeds every random source the repository draws from: the
// package-level math/rand generator and the tensor creation RNG. Call it
// at the top of any test whose results feed a baseline.
func SetSeed(seed int64) {
	rand.Seed(seed)
	tensor.Seed(seed)
}

// RecordBaseline writes an ordered result sequence as a baseline
// artifact at path, creating parent directories as needed. Recording is
// a deliberate act: it defines what later runs are verified against, so
// it never happens implicitly inside a verification.
func RecordBaseline(path string, results []*tensor.RawTensor) error {
	if len(results) == 0 {
		return fmt.Errorf("refusing to record empty baseline %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create baseline directory: %w", err)
	}
	log.Printf("recording baseline with %d result(s) to %s", len(results), path)
	return serialization.WriteResults(path, results)
}

// LoadBaseline reads a baseline artifact and returns its result tensors
// in recorded order. Artifacts of any other kind are rejected.
func LoadBaseline(path string) ([]*tensor.RawTensor, error) {
	artifact, err := serialization.ReadArtifact(path)
	if err != nil {
		return nil, err
	}
	if artifact.Kind() != serialization.KindBaseline {
		return nil, fmt.Errorf("%s: artifact kind %q, want %q", path, artifact.Kind(), serialization.KindBaseline)
	}
	return artifact.Results(), nil
}

// VerifyAgainstBaseline compares results against the baseline recorded
// at path, failing the test on any mismatch in count, shape, dtype, or
// value (within the default tolerances). A missing baseline fails with a
// hint to record one.
func VerifyAgainstBaseline(t testing.TB, path string, results []*tensor.RawTensor) {
	t.Helper()

	loaded, err := LoadBaseline(path)
	if errors.Is(err, os.ErrNotExist) {
		t.Fatalf("baseline %s does not exist; record it first with RecordBaseline", path)
	}
	require.NoError(t, err)
	require.Len(t, results, len(loaded), "result count differs from baseline %s", path)

	for i, want := range loaded {
		AssertTensorsClose(t, want, results[i])
	}
}

// AssertArraysClose fails the test unless the two slices have the same
// length and every pair of elements is equal within the default
// tolerances.
func AssertArraysClose(t testing.TB, expected, actual []float64) {
	t.Helper()
	AssertArraysCloseTol(t, expected, actual, DefaultRTol, DefaultATol)
}

// AssertArraysCloseTol is AssertArraysClose with explicit tolerances.
func AssertArraysCloseTol(t testing.TB, expected, actual []float64, rtol, atol float64) {
	t.Helper()
	require.Len(t, actual, len(expected), "array length mismatch")
	for i := range expected {
		if !closeEnough(expected[i], actual[i], rtol, atol) {
			t.Fatalf("arrays differ at index %d: expected %v, got %v (rtol=%g, atol=%g)",
				i, expected[i], actual[i], rtol, atol)
		}
	}
}

// AssertTensorsClose fails the test unless the two tensors agree in
// dtype and shape and their elements are equal within the default
// tolerances.
func AssertTensorsClose(t testing.TB, expected, actual *tensor.RawTensor) {
	t.Helper()
	require.NotNil(t, expected)
	require.NotNil(t, actual)
	require.Equal(t, expected.DType(), actual.DType(), "tensor dtype mismatch")
	require.True(t, expected.Shape().Equal(actual.Shape()),
		"tensor shape mismatch: expected %v, got %v", expected.Shape(), actual.Shape())
	AssertArraysClose(t, tensorToFloat64(expected), tensorToFloat64(actual))
}

// closeEnough implements the allclose predicate for one element pair.
func closeEnough(a, b, rtol, atol float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}

func tensorToFloat64(raw *tensor.RawTensor) []float64 {
	n := raw.NumElements()
	out := make([]float64, n)
	switch raw.DType() {
	case tensor.Float32:
		for i, v := range raw.AsFloat32() {
			out[i] = float64(v)
		}
	case tensor.Float64:
		copy(out, raw.AsFloat64())
	case tensor.Int64:
		for i, v := range raw.AsInt64() {
			out[i] = float64(v)
		}
	case tensor.Uint8:
		for i, v := range raw.AsUint8() {
			out[i] = float64(v)
		}
	}
	return out
}
