package nn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// Sequential is a container module that chains modules together.
//
// Each module's output becomes the next module's input.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewConv2D(1, 16, 4, 4, 2, 1, backend),
//	    nn.NewReLU[B](),
//	    nn.NewFlatten[B](),
//	    nn.NewLinear(16*14*14, 10, backend),
//	)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Parameters returns all parameters from all modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Modules returns the contained modules in order.
func (s *Sequential[B]) Modules() []Module[B] {
	return s.modules
}

// Len returns the number of contained modules.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// stateful is implemented by modules that carry loadable parameters.
type stateful interface {
	StateDict() map[string]*tensor.RawTensor
}

type stateLoader interface {
	LoadStateDict(map[string]*tensor.RawTensor) error
}

// StateDict returns all parameters keyed by "<index>.<name>", matching the
// layout of weights artifacts (e.g. "0.weight", "5.bias").
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, module := range s.modules {
		sm, ok := module.(stateful)
		if !ok {
			continue
		}
		for name, raw := range sm.StateDict() {
			stateDict[fmt.Sprintf("%d.%s", i, name)] = raw
		}
	}
	return stateDict
}

// LoadStateDict loads parameters keyed by "<index>.<name>" into the
// contained modules. Entries for module indices without parameters are
// rejected, as are missing entries for modules that need them.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	// Group entries by module index.
	perModule := make(map[int]map[string]*tensor.RawTensor)
	for key, raw := range stateDict {
		idxStr, name, found := strings.Cut(key, ".")
		if !found {
			return fmt.Errorf("malformed state dict key %q: expected \"<index>.<name>\"", key)
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 0 || idx >= len(s.modules) {
			return fmt.Errorf("state dict key %q: invalid module index", key)
		}
		if perModule[idx] == nil {
			perModule[idx] = make(map[string]*tensor.RawTensor)
		}
		perModule[idx][name] = raw
	}

	for i, module := range s.modules {
		loader, ok := module.(stateLoader)
		if !ok {
			if perModule[i] != nil {
				return fmt.Errorf("state dict has entries for module %d, which has no parameters", i)
			}
			continue
		}
		entries := perModule[i]
		if entries == nil {
			return fmt.Errorf("state dict missing entries for module %d", i)
		}
		if err := loader.LoadStateDict(entries); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}

// String returns a string representation of the container.
func (s *Sequential[B]) String() string {
	var sb strings.Builder
	sb.WriteString("Sequential(\n")
	for i, module := range s.modules {
		fmt.Fprintf(&sb, "  (%d): %v\n", i, module)
	}
	sb.WriteString(")")
	return sb.String()
}
