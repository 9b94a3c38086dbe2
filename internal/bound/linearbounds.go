package bound

import (
	"gonum.org/v1/gonum/mat"
)

// sampleLinear holds the final linear coefficients for one sample:
//
//	phiL·x + biasL <= spec(x) <= phiU·x + biasU
//
// with phi of shape [specs, inputSize] over the flattened input.
type sampleLinear struct {
	phiL, phiU   *mat.Dense
	biasL, biasU *mat.VecDense
}

// LinearBounds exposes the final linear coefficients of a backward bound
// computation, per sample. Useful for inspecting how sensitive each
// specification is to each input pixel, or for feeding the linear form
// into a downstream solver.
//
// Under MethodCROWNOptimized the coefficients come from the final
// optimization iteration, while the reported bounds keep the best value
// seen across iterations, so the bounds can be slightly tighter than
// what these coefficients concretize to.
type LinearBounds struct {
	samples []*sampleLinear
}

func newLinearBounds(batch int) *LinearBounds {
	return &LinearBounds{samples: make([]*sampleLinear, 0, batch)}
}

func (lb *LinearBounds) append(s *sampleLinear) {
	lb.samples = append(lb.samples, s)
}

// NumSamples returns the number of samples with recorded coefficients.
func (lb *LinearBounds) NumSamples() int {
	return len(lb.samples)
}

// Lower returns the lower-bound coefficient matrix [specs, inputSize]
// for one sample.
func (lb *LinearBounds) Lower(sample int) *mat.Dense {
	return lb.samples[sample].phiL
}

// Upper returns the upper-bound coefficient matrix for one sample.
func (lb *LinearBounds) Upper(sample int) *mat.Dense {
	return lb.samples[sample].phiU
}

// LowerBias returns the lower-bound bias vector [specs] for one sample.
func (lb *LinearBounds) LowerBias(sample int) *mat.VecDense {
	return lb.samples[sample].biasL
}

// UpperBias returns the upper-bound bias vector for one sample.
func (lb *LinearBounds) UpperBias(sample int) *mat.VecDense {
	return lb.samples[sample].biasU
}

// LowerNorm returns the Frobenius norm of the lower coefficient matrix.
func (lb *LinearBounds) LowerNorm(sample int) float64 {
	return mat.Norm(lb.samples[sample].phiL, 2)
}

// UpperNorm returns the Frobenius norm of the upper coefficient matrix.
func (lb *LinearBounds) UpperNorm(sample int) float64 {
	return mat.Norm(lb.samples[sample].phiU, 2)
}

// LowerBiasSum returns the sum of the lower bias entries.
func (lb *LinearBounds) LowerBiasSum(sample int) float64 {
	return vecSum(lb.samples[sample].biasL)
}

// UpperBiasSum returns the sum of the upper bias entries.
func (lb *LinearBounds) UpperBiasSum(sample int) float64 {
	return vecSum(lb.samples[sample].biasU)
}

func vecSum(v *mat.VecDense) float64 {
	sum := 0.0
	for i := 0; i < v.Len(); i++ {
		sum += v.AtVec(i)
	}
	return sum
}
