package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// Artifact is a fully loaded .veri file.
type Artifact struct {
	Header  Header
	tensors []NamedTensor
	byName  map[string]*tensor.RawTensor
}

// ReadArtifact reads and validates a .veri file.
func ReadArtifact(path string) (*Artifact, error) {
	file, err := os.Open(path) //nolint:gosec // artifact path is caller-chosen
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(file, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, fmt.Errorf("invalid magic bytes %q: not a .veri file", magic)
	}

	var headerLen uint32
	if err := binary.Read(file, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("failed to read header length: %w", err)
	}

	headerJSON := make([]byte, headerLen)
	if _, err := io.ReadFull(file, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if header.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %d (want %d)", header.FormatVersion, FormatVersion)
	}

	artifact := &Artifact{
		Header: header,
		byName: make(map[string]*tensor.RawTensor, len(header.Tensors)),
	}

	hash := sha256.New()
	var offset int64
	for _, meta := range header.Tensors {
		if meta.Offset != offset {
			return nil, fmt.Errorf("tensor %q: unexpected offset %d (want %d)", meta.Name, meta.Offset, offset)
		}

		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, fmt.Errorf("tensor %q: unknown dtype %q", meta.Name, meta.DType)
		}

		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, fmt.Errorf("tensor %q: size %d does not match shape %v", meta.Name, meta.Size, meta.Shape)
		}
		if _, err := io.ReadFull(file, raw.Data()); err != nil {
			return nil, fmt.Errorf("tensor %q: failed to read data: %w", meta.Name, err)
		}
		hash.Write(raw.Data())

		artifact.tensors = append(artifact.tensors, NamedTensor{Name: meta.Name, Tensor: raw})
		artifact.byName[meta.Name] = raw
		offset += meta.Size
	}

	if sum := hex.EncodeToString(hash.Sum(nil)); sum != header.Checksum {
		return nil, fmt.Errorf("checksum mismatch: data section is corrupted")
	}

	return artifact, nil
}

// Kind returns the artifact kind ("weights" or "baseline").
func (a *Artifact) Kind() string {
	return a.Header.Kind
}

// Tensor returns the tensor with the given name, or nil if absent.
func (a *Artifact) Tensor(name string) *tensor.RawTensor {
	return a.byName[name]
}

// Tensors returns all tensors in file order.
func (a *Artifact) Tensors() []NamedTensor {
	return a.tensors
}

// StateDict returns the tensors as a name-keyed map.
func (a *Artifact) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(a.byName))
	for name, raw := range a.byName {
		stateDict[name] = raw
	}
	return stateDict
}

// Results returns the tensors in file order, dropping names. This is the
// accessor baseline artifacts are read through.
func (a *Artifact) Results() []*tensor.RawTensor {
	results := make([]*tensor.RawTensor, len(a.tensors))
	for i, nt := range a.tensors {
		results[i] = nt.Tensor
	}
	return results
}
