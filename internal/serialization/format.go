// Package serialization implements the .veri artifact container.
//
// A .veri file stores an ordered sequence of named tensors with a JSON
// header, and is used for two artifact kinds: pretrained model weights and
// golden baseline results for regression tests.
//
// Layout:
//
//	magic bytes "VERI" (4 bytes)
//	header length (uint32, little-endian)
//	JSON header
//	tensor data, little-endian, in header order
//
// The header carries a SHA-256 checksum of the data section, verified on
// read.
package serialization

import (
	"time"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "VERI"
	FormatVersion = 1
)

// Artifact kinds.
const (
	KindWeights  = "weights"
	KindBaseline = "baseline"
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
)

// Header is the JSON header of a .veri file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	Kind          string            `json:"kind"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Checksum      string            `json:"checksum"` // SHA-256 of the data section, hex
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from start of the data section
	Size   int64  `json:"size"`   // bytes
}

// dtypeToString converts tensor.DataType to its string representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int64:
		return DTypeInt64
	case tensor.Uint8:
		return DTypeUint8
	default:
		return "unknown"
	}
}

// stringToDtype converts a string representation to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeUint8:
		return tensor.Uint8, true
	default:
		return 0, false
	}
}
