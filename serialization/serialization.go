// Copyright 2025 VeriGo Project. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package serialization provides the public API for the .veri artifact
// format: checksummed tensor containers used for model weights and test
// baselines.
package serialization

import (
	"github.com/verigo-ml/verigo/internal/serialization"
	"github.com/verigo-ml/verigo/internal/tensor"
)

// Artifact kinds.
const (
	KindWeights  = serialization.KindWeights
	KindBaseline = serialization.KindBaseline
)

// NamedTensor pairs a tensor with its name inside an artifact.
type NamedTensor = serialization.NamedTensor

// Artifact is a parsed .veri file.
type Artifact = serialization.Artifact

// ReadArtifact reads and validates a .veri file.
func ReadArtifact(path string) (*Artifact, error) {
	return serialization.ReadArtifact(path)
}

// WriteArtifact writes tensors as a .veri file of the given kind.
func WriteArtifact(path, kind string, tensors []NamedTensor, metadata map[string]string) error {
	return serialization.WriteArtifact(path, kind, tensors, metadata)
}

// WriteStateDict writes a model state dictionary as a weights artifact.
func WriteStateDict(path string, stateDict map[string]*tensor.RawTensor) error {
	return serialization.WriteStateDict(path, stateDict)
}

// WriteResults writes an ordered result sequence as a baseline artifact.
func WriteResults(path string, results []*tensor.RawTensor) error {
	return serialization.WriteResults(path, results)
}
