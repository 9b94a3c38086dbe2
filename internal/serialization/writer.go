package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// NamedTensor pairs a tensor with its artifact name. Order is preserved in
// the file, which matters for baseline artifacts where results are compared
// positionally.
type NamedTensor struct {
	Name   string
	Tensor *tensor.RawTensor
}

// WriteArtifact writes an ordered sequence of named tensors to a .veri file
// at path, overwriting any existing file.
func WriteArtifact(path, kind string, tensors []NamedTensor, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		Kind:          kind,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}

	// Lay out the data section and compute its checksum.
	var offset int64
	hash := sha256.New()
	for _, nt := range tensors {
		raw := nt.Tensor
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   nt.Name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
		hash.Write(raw.Data())
	}
	header.Checksum = hex.EncodeToString(hash.Sum(nil))

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	file, err := os.Create(path) //nolint:gosec // artifact path is caller-chosen
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header length: %w", err)
	}
	if _, err := file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, nt := range tensors {
		if _, err := file.Write(nt.Tensor.Data()); err != nil {
			return fmt.Errorf("failed to write tensor %d (%s): %w", i, nt.Name, err)
		}
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return nil
}

// WriteStateDict writes a model state dictionary as a weights artifact.
// Entries are written in sorted name order for determinism.
func WriteStateDict(path string, stateDict map[string]*tensor.RawTensor) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	tensors := make([]NamedTensor, 0, len(names))
	for _, name := range names {
		tensors = append(tensors, NamedTensor{Name: name, Tensor: stateDict[name]})
	}
	return WriteArtifact(path, KindWeights, tensors, nil)
}

// WriteResults writes an ordered result sequence as a baseline artifact.
func WriteResults(path string, results []*tensor.RawTensor) error {
	tensors := make([]NamedTensor, 0, len(results))
	for i, raw := range results {
		tensors = append(tensors, NamedTensor{Name: fmt.Sprintf("result.%d", i), Tensor: raw})
	}
	return WriteArtifact(path, KindBaseline, tensors, nil)
}
