package bound

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/verigo-ml/verigo/internal/nn"
	"github.com/verigo-ml/verigo/internal/tensor"
)

// layer is the internal float64 view of one model layer, flattened to
// vector-in/vector-out form. inSize and outSize are the flattened feature
// counts; the batch dimension is handled outside.
type layer interface {
	// inSize and outSize report flattened feature counts.
	inSize() int
	outSize() int

	// forward evaluates the layer on a concrete flattened vector. For a
	// ReLU layer this is the exact nonlinearity; bound propagation never
	// calls it on relaxed paths.
	forward(v []float64) []float64
}

// affine is implemented by layers that are linear maps plus bias.
type affine interface {
	layer

	// backwardA maps output-side linear coefficients [specs, outSize] to
	// input-side coefficients [specs, inSize] and accumulates the bias
	// contribution of each row into bias.
	backwardA(a *mat.Dense, bias *mat.VecDense) *mat.Dense

	// forwardAdjoint applies the layer's affine map to a vector (same as
	// forward for affine layers). Used by the alpha-gradient pass.
	forwardAdjoint(v []float64) []float64

	// intervalArm propagates an interval center/radius pair: the center
	// goes through the full affine map, the radius through |W|.
	intervalArm(center, radius []float64) (outCenter, outRadius []float64)
}

type linearLayer struct {
	w   *mat.Dense // [out, in]
	b   []float64  // [out]
	in  int
	out int
}

type convLayer struct {
	w []float64 // [cOut, cIn, kh, kw] flattened
	b []float64 // [cOut]

	cIn, hIn, wIn    int
	cOut, hOut, wOut int
	kh, kw           int
	stride, padding  int
}

type reluLayer struct {
	size int
}

// flattenLayer is an identity on the flattened view; it only changes the
// tensor-shaped interpretation, which the float64 pipeline never sees.
type flattenLayer struct {
	size int
}

// extractLayers converts a Sequential model into the float64 layer list,
// inferring per-layer geometry from the (batch-less) input shape.
func extractLayers[B tensor.Backend](model *nn.Sequential[B], inputShape tensor.Shape) ([]layer, error) {
	shape := inputShape.Clone()
	layers := make([]layer, 0, model.Len())

	for i, module := range model.Modules() {
		switch m := module.(type) {
		case *nn.Linear[B]:
			if len(shape) != 1 {
				return nil, fmt.Errorf("layer %d (%v): expected flattened input, got shape %v", i, m, shape)
			}
			if shape[0] != m.InFeatures() {
				return nil, fmt.Errorf("layer %d (%v): input size %d does not match", i, m, shape[0])
			}
			layers = append(layers, newLinearLayer(m))
			shape = tensor.Shape{m.OutFeatures()}

		case *nn.Conv2D[B]:
			if len(shape) != 3 {
				return nil, fmt.Errorf("layer %d (%v): expected [C,H,W] input, got shape %v", i, m, shape)
			}
			if shape[0] != m.InChannels() {
				return nil, fmt.Errorf("layer %d (%v): input channels %d do not match", i, m, shape[0])
			}
			cl := newConvLayer(m, shape[1], shape[2])
			layers = append(layers, cl)
			shape = tensor.Shape{cl.cOut, cl.hOut, cl.wOut}

		case *nn.ReLU[B]:
			layers = append(layers, &reluLayer{size: shape.NumElements()})

		case *nn.Flatten[B]:
			layers = append(layers, &flattenLayer{size: shape.NumElements()})
			shape = tensor.Shape{shape.NumElements()}

		default:
			return nil, fmt.Errorf("layer %d: unsupported module type %T", i, module)
		}
	}

	if len(shape) != 1 {
		return nil, fmt.Errorf("model output must be flattened, got shape %v", shape)
	}
	return layers, nil
}

func newLinearLayer[B tensor.Backend](m *nn.Linear[B]) *linearLayer {
	in, out := m.InFeatures(), m.OutFeatures()
	w := mat.NewDense(out, in, nil)
	wData := m.Weight().Tensor().Data()
	for r := 0; r < out; r++ {
		row := w.RawRowView(r)
		for c := 0; c < in; c++ {
			row[c] = float64(wData[r*in+c])
		}
	}
	b := make([]float64, out)
	for i, v := range m.Bias().Tensor().Data() {
		b[i] = float64(v)
	}
	return &linearLayer{w: w, b: b, in: in, out: out}
}

func newConvLayer[B tensor.Backend](m *nn.Conv2D[B], hIn, wIn int) *convLayer {
	ks := m.KernelSize()
	outHW := m.ComputeOutputSize(hIn, wIn)

	wData := m.Weight().Tensor().Data()
	w := make([]float64, len(wData))
	for i, v := range wData {
		w[i] = float64(v)
	}
	b := make([]float64, m.OutChannels())
	for i, v := range m.Bias().Tensor().Data() {
		b[i] = float64(v)
	}

	return &convLayer{
		w:       w,
		b:       b,
		cIn:     m.InChannels(),
		hIn:     hIn,
		wIn:     wIn,
		cOut:    m.OutChannels(),
		hOut:    outHW[0],
		wOut:    outHW[1],
		kh:      ks[0],
		kw:      ks[1],
		stride:  m.Stride(),
		padding: m.Padding(),
	}
}

// linearLayer

func (l *linearLayer) inSize() int  { return l.in }
func (l *linearLayer) outSize() int { return l.out }

func (l *linearLayer) forward(v []float64) []float64 {
	out := make([]float64, l.out)
	for r := 0; r < l.out; r++ {
		row := l.w.RawRowView(r)
		sum := l.b[r]
		for c, x := range v {
			sum += row[c] * x
		}
		out[r] = sum
	}
	return out
}

func (l *linearLayer) forwardAdjoint(v []float64) []float64 {
	return l.forward(v)
}

func (l *linearLayer) backwardA(a *mat.Dense, bias *mat.VecDense) *mat.Dense {
	specs, _ := a.Dims()
	out := mat.NewDense(specs, l.in, nil)
	out.Mul(a, l.w)
	for s := 0; s < specs; s++ {
		row := a.RawRowView(s)
		sum := 0.0
		for j, v := range row {
			sum += v * l.b[j]
		}
		bias.SetVec(s, bias.AtVec(s)+sum)
	}
	return out
}

func (l *linearLayer) intervalArm(center, radius []float64) ([]float64, []float64) {
	outC := l.forward(center)
	outR := make([]float64, l.out)
	for r := 0; r < l.out; r++ {
		row := l.w.RawRowView(r)
		sum := 0.0
		for c, x := range radius {
			sum += math.Abs(row[c]) * x
		}
		outR[r] = sum
	}
	return outC, outR
}

// convLayer

func (l *convLayer) inSize() int  { return l.cIn * l.hIn * l.wIn }
func (l *convLayer) outSize() int { return l.cOut * l.hOut * l.wOut }

// apply runs the convolution over a flattened [cIn, hIn, wIn] vector.
// absWeights selects |W| (used for interval radii); withBias adds the bias.
func (l *convLayer) apply(v []float64, absWeights, withBias bool) []float64 {
	out := make([]float64, l.outSize())
	for co := 0; co < l.cOut; co++ {
		for ho := 0; ho < l.hOut; ho++ {
			for wo := 0; wo < l.wOut; wo++ {
				sum := 0.0
				if withBias {
					sum = l.b[co]
				}
				hBase := ho*l.stride - l.padding
				wBase := wo*l.stride - l.padding
				for ci := 0; ci < l.cIn; ci++ {
					for ki := 0; ki < l.kh; ki++ {
						hi := hBase + ki
						if hi < 0 || hi >= l.hIn {
							continue
						}
						for kj := 0; kj < l.kw; kj++ {
							wi := wBase + kj
							if wi < 0 || wi >= l.wIn {
								continue
							}
							wv := l.w[((co*l.cIn+ci)*l.kh+ki)*l.kw+kj]
							if absWeights {
								wv = math.Abs(wv)
							}
							sum += wv * v[(ci*l.hIn+hi)*l.wIn+wi]
						}
					}
				}
				out[(co*l.hOut+ho)*l.wOut+wo] = sum
			}
		}
	}
	return out
}

func (l *convLayer) forward(v []float64) []float64 {
	return l.apply(v, false, true)
}

func (l *convLayer) forwardAdjoint(v []float64) []float64 {
	return l.forward(v)
}

// backwardA maps output-side coefficients through the transposed
// convolution: each output coefficient scatters its kernel patch onto the
// input grid.
func (l *convLayer) backwardA(a *mat.Dense, bias *mat.VecDense) *mat.Dense {
	specs, _ := a.Dims()
	out := mat.NewDense(specs, l.inSize(), nil)

	for s := 0; s < specs; s++ {
		aRow := a.RawRowView(s)
		outRow := out.RawRowView(s)
		biasSum := 0.0

		for co := 0; co < l.cOut; co++ {
			for ho := 0; ho < l.hOut; ho++ {
				for wo := 0; wo < l.wOut; wo++ {
					coef := aRow[(co*l.hOut+ho)*l.wOut+wo]
					if coef == 0 {
						continue
					}
					biasSum += coef * l.b[co]
					hBase := ho*l.stride - l.padding
					wBase := wo*l.stride - l.padding
					for ci := 0; ci < l.cIn; ci++ {
						for ki := 0; ki < l.kh; ki++ {
							hi := hBase + ki
							if hi < 0 || hi >= l.hIn {
								continue
							}
							for kj := 0; kj < l.kw; kj++ {
								wi := wBase + kj
								if wi < 0 || wi >= l.wIn {
									continue
								}
								outRow[(ci*l.hIn+hi)*l.wIn+wi] += coef * l.w[((co*l.cIn+ci)*l.kh+ki)*l.kw+kj]
							}
						}
					}
				}
			}
		}
		bias.SetVec(s, bias.AtVec(s)+biasSum)
	}
	return out
}

func (l *convLayer) intervalArm(center, radius []float64) ([]float64, []float64) {
	return l.apply(center, false, true), l.apply(radius, true, false)
}

// reluLayer

func (l *reluLayer) inSize() int  { return l.size }
func (l *reluLayer) outSize() int { return l.size }

func (l *reluLayer) forward(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if x > 0 {
			out[i] = x
		}
	}
	return out
}

// flattenLayer

func (l *flattenLayer) inSize() int  { return l.size }
func (l *flattenLayer) outSize() int { return l.size }

func (l *flattenLayer) forward(v []float64) []float64 {
	return v
}

func (l *flattenLayer) forwardAdjoint(v []float64) []float64 {
	return v
}

func (l *flattenLayer) backwardA(a *mat.Dense, _ *mat.VecDense) *mat.Dense {
	return a
}

func (l *flattenLayer) intervalArm(center, radius []float64) ([]float64, []float64) {
	return center, radius
}
