package tensor

import (
	"math"
	"math/rand"
	"sync"
)

// Package-level RNG used by random creation functions. Kept separate from
// math/rand's global source so verification runs can be made bit-reproducible
// with Seed independently of other library users.
var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(1)) //nolint:gosec // reproducible draws, not security
)

// Seed reseeds the tensor package RNG. Repeated runs after the same Seed
// produce identical random tensors.
func Seed(seed int64) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible draws, not security
}

// randFloat64 draws from the package RNG.
func randFloat64() float64 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Float64()
}

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var one T = 1
	return Full[T, B](shape, one, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 0.3, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Rand creates a float tensor with values drawn from U(0, 1).
// Only float32 and float64 are supported.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		d := any(data).([]float32)
		for i := range d {
			d[i] = float32(randFloat64())
		}
	case float64:
		d := any(data).([]float64)
		for i := range d {
			d[i] = randFloat64()
		}
	default:
		panic("Rand: only float types supported")
	}
	return t
}

// Randn creates a float tensor with values from N(0, 1) using the
// Box-Muller transform. Only float32 and float64 are supported.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	normal := func() float64 {
		u1 := randFloat64()
		u2 := randFloat64()
		if u1 < 1e-300 {
			u1 = 1e-300
		}
		return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
	}

	var dummy T
	switch any(dummy).(type) {
	case float32:
		d := any(data).([]float32)
		for i := range d {
			d[i] = float32(normal())
		}
	case float64:
		d := any(data).([]float64)
		for i := range d {
			d[i] = normal()
		}
	default:
		panic("Randn: only float types supported")
	}
	return t
}

// Uniform creates a float tensor with values drawn from U(lo, hi).
func Uniform[T DType, B Backend](shape Shape, lo, hi float64, b B) *Tensor[T, B] {
	t := Rand[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		d := any(data).([]float32)
		for i := range d {
			d[i] = float32(lo) + d[i]*float32(hi-lo)
		}
	case float64:
		d := any(data).([]float64)
		for i := range d {
			d[i] = lo + d[i]*(hi-lo)
		}
	default:
		panic("Uniform: only float types supported")
	}
	return t
}
