package bound

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/verigo-ml/verigo/internal/nn"
	"github.com/verigo-ml/verigo/internal/tensor"
)

// Method selects the bound propagation algorithm.
type Method int

const (
	// MethodIBP propagates intervals layer by layer. Fast, loose.
	MethodIBP Method = iota
	// MethodCROWNIBP uses IBP intermediate bounds and a single CROWN
	// backward pass for the output.
	MethodCROWNIBP
	// MethodCROWN computes all intermediate bounds with backward passes.
	MethodCROWN
	// MethodCROWNOptimized is CROWN with the lower relaxation slopes
	// optimized by gradient ascent (alpha-CROWN).
	MethodCROWNOptimized
)

func (m Method) String() string {
	switch m {
	case MethodIBP:
		return "IBP"
	case MethodCROWNIBP:
		return "CROWN-IBP"
	case MethodCROWN:
		return "CROWN"
	case MethodCROWNOptimized:
		return "CROWN-Optimized"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a method name to its Method value. Accepted names
// match String: "IBP", "CROWN-IBP", "CROWN", "CROWN-Optimized" (with
// "alpha-CROWN" as an alias).
func ParseMethod(name string) (Method, error) {
	switch name {
	case "IBP":
		return MethodIBP, nil
	case "CROWN-IBP":
		return MethodCROWNIBP, nil
	case "CROWN":
		return MethodCROWN, nil
	case "CROWN-Optimized", "alpha-CROWN":
		return MethodCROWNOptimized, nil
	default:
		return 0, fmt.Errorf("unknown bound method %q", name)
	}
}

// Options controls the alpha-CROWN optimization loop.
type Options struct {
	// Iterations is the number of Adam steps (default 20).
	Iterations int
	// LrAlpha is the Adam learning rate for the slopes (default 0.1).
	LrAlpha float64
	// Verbose prints per-iteration progress.
	Verbose bool
}

func defaultOptions() Options {
	return Options{Iterations: 20, LrAlpha: 0.1}
}

// Request describes one bound computation.
type Request[B tensor.Backend] struct {
	// Input is the batch of nominal inputs, shape [N, ...].
	Input *tensor.Tensor[float32, B]
	// Perturbation is the allowed input region around each sample.
	Perturbation Perturbation
	// Method selects the propagation algorithm.
	Method Method
	// C is an optional specification matrix of shape [N, specs, outputs].
	// When set, bounds are computed on C·f(x) instead of f(x) directly;
	// a row like (+1 at the true class, -1 at a competitor) bounds the
	// classification margin. Nil means bound each output, equivalent to
	// an identity C.
	C *tensor.Tensor[float32, B]
	// ReturnLinear requests the final linear coefficients in the result.
	// Ignored for MethodIBP, which has no linear form.
	ReturnLinear bool
}

// Result holds the computed bounds.
type Result[B tensor.Backend] struct {
	// Lower and Upper have shape [N, specs]: provable bounds on each
	// specification (or raw output) for each sample.
	Lower *tensor.Tensor[float32, B]
	Upper *tensor.Tensor[float32, B]
	// Linear is set when Request.ReturnLinear was true and the method
	// produces linear coefficients.
	Linear *LinearBounds
}

// BoundedModule wraps a Sequential model for bound computation. The
// wrapped model stays usable for ordinary inference through Forward.
type BoundedModule[B tensor.Backend] struct {
	model      *nn.Sequential[B]
	layers     []layer
	inputShape tensor.Shape // per-sample, without batch dimension
	backend    B
	opts       Options
}

// New wraps model for bound computation. inputShape is the per-sample
// input shape without the batch dimension, e.g. [1, 28, 28] for MNIST.
func New[B tensor.Backend](model *nn.Sequential[B], inputShape tensor.Shape, backend B) (*BoundedModule[B], error) {
	if err := inputShape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input shape: %w", err)
	}
	layers, err := extractLayers(model, inputShape)
	if err != nil {
		return nil, fmt.Errorf("unsupported model: %w", err)
	}
	return &BoundedModule[B]{
		model:      model,
		layers:     layers,
		inputShape: inputShape.Clone(),
		backend:    backend,
		opts:       defaultOptions(),
	}, nil
}

// SetBoundOptions replaces the optimization options. Zero fields fall
// back to their defaults.
func (bm *BoundedModule[B]) SetBoundOptions(opts Options) {
	def := defaultOptions()
	if opts.Iterations <= 0 {
		opts.Iterations = def.Iterations
	}
	if opts.LrAlpha <= 0 {
		opts.LrAlpha = def.LrAlpha
	}
	bm.opts = opts
}

// Forward runs ordinary inference on the wrapped model.
func (bm *BoundedModule[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return bm.model.Forward(input)
}

// Model returns the wrapped model.
func (bm *BoundedModule[B]) Model() *nn.Sequential[B] {
	return bm.model
}

// OutputSize returns the flattened model output size.
func (bm *BoundedModule[B]) OutputSize() int {
	return bm.layers[len(bm.layers)-1].outSize()
}

// ComputeBounds computes provable output bounds for every sample in the
// request batch.
func (bm *BoundedModule[B]) ComputeBounds(req Request[B]) (*Result[B], error) {
	if req.Input == nil {
		return nil, fmt.Errorf("nil input")
	}
	if err := req.Perturbation.validate(); err != nil {
		return nil, err
	}
	inShape := req.Input.Shape()
	if len(inShape) < 2 {
		return nil, fmt.Errorf("input must be batched, got shape %v", inShape)
	}
	if !tensor.Shape(inShape[1:]).Equal(bm.inputShape) {
		return nil, fmt.Errorf("input shape %v does not match model input %v", inShape[1:], bm.inputShape)
	}
	batch := inShape[0]
	outSize := bm.OutputSize()

	specs := outSize
	if req.C != nil {
		cShape := req.C.Shape()
		if len(cShape) != 3 || cShape[0] != batch || cShape[2] != outSize {
			return nil, fmt.Errorf("specification matrix shape %v, want [%d, specs, %d]", cShape, batch, outSize)
		}
		specs = cShape[1]
	}

	inSize := bm.inputShape.NumElements()
	inputData := req.Input.Data()
	var cData []float32
	if req.C != nil {
		cData = req.C.Data()
	}

	lower := make([]float32, batch*specs)
	upper := make([]float32, batch*specs)
	var linear *LinearBounds
	if req.ReturnLinear && req.Method != MethodIBP {
		linear = newLinearBounds(batch)
	}

	for s := 0; s < batch; s++ {
		x0 := make([]float64, inSize)
		for i := range x0 {
			x0[i] = float64(inputData[s*inSize+i])
		}
		c := bm.specMatrix(cData, s, specs, outSize)

		lb, ub, lin, err := bm.boundSample(x0, c, req.Perturbation, req.Method, linear != nil)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", s, err)
		}
		for j := 0; j < specs; j++ {
			lower[s*specs+j] = float32(lb[j])
			upper[s*specs+j] = float32(ub[j])
		}
		if linear != nil {
			linear.append(lin)
		}
	}

	lowerT, err := tensor.FromSlice[float32, B](lower, tensor.Shape{batch, specs}, bm.backend)
	if err != nil {
		return nil, err
	}
	upperT, err := tensor.FromSlice[float32, B](upper, tensor.Shape{batch, specs}, bm.backend)
	if err != nil {
		return nil, err
	}
	return &Result[B]{Lower: lowerT, Upper: upperT, Linear: linear}, nil
}

// specMatrix builds the [specs, outSize] specification matrix for one
// sample, defaulting to identity when no C was given.
func (bm *BoundedModule[B]) specMatrix(cData []float32, sample, specs, outSize int) *mat.Dense {
	c := mat.NewDense(specs, outSize, nil)
	if cData == nil {
		for j := 0; j < specs; j++ {
			c.Set(j, j, 1)
		}
		return c
	}
	base := sample * specs * outSize
	for j := 0; j < specs; j++ {
		row := c.RawRowView(j)
		for k := 0; k < outSize; k++ {
			row[k] = float64(cData[base+j*outSize+k])
		}
	}
	return c
}

// boundSample computes bounds for one sample under the chosen method.
func (bm *BoundedModule[B]) boundSample(x0 []float64, c *mat.Dense, p Perturbation, method Method, wantLinear bool) (lb, ub []float64, lin *sampleLinear, err error) {
	switch method {
	case MethodIBP:
		lb, ub = bm.ibpBounds(x0, c, p)
		return lb, ub, nil, nil

	case MethodCROWNIBP, MethodCROWN:
		ctx := &sampleCtx{p: p, x0: x0}
		if method == MethodCROWNIBP {
			bm.ibpIntermediates(ctx)
		} else {
			bm.crownIntermediates(ctx)
		}
		phiL, phiU, biasL, biasU := bm.backward(ctx, len(bm.layers), c, nil, nil, nil)
		lb, ub = p.concretize(x0, phiL, phiU, biasL, biasU)
		if wantLinear {
			lin = &sampleLinear{phiL: phiL, phiU: phiU, biasL: biasL, biasU: biasU}
		}
		return lb, ub, lin, nil

	case MethodCROWNOptimized:
		return bm.optimizedBounds(x0, c, p, wantLinear)

	default:
		return nil, nil, nil, fmt.Errorf("unknown method %v", method)
	}
}
