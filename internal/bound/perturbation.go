// Package bound implements bound propagation for feed-forward ReLU
// networks: given a model and a perturbation region around an input, it
// computes provable lower and upper bounds on every output.
//
// Supported methods:
//   - IBP: interval bound propagation
//   - CROWN-IBP: IBP intermediate bounds, one CROWN backward pass
//   - CROWN: full backward linear relaxation
//   - CROWN-Optimized (alpha-CROWN): CROWN with gradient-optimized lower
//     relaxation slopes
package bound

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/verigo-ml/verigo/internal/tensor"
)

// Perturbation describes the allowed input variation: an Lp-norm ball of
// radius Eps around the nominal input. Linf and L2 norms are supported.
type Perturbation struct {
	Norm float64 // math.Inf(1) or 2
	Eps  float64
}

// NewPerturbationLinf creates an Linf-ball perturbation of radius eps.
func NewPerturbationLinf(eps float64) Perturbation {
	return Perturbation{Norm: math.Inf(1), Eps: eps}
}

// NewPerturbationL2 creates an L2-ball perturbation of radius eps.
func NewPerturbationL2(eps float64) Perturbation {
	return Perturbation{Norm: 2, Eps: eps}
}

// validate rejects unsupported norms and negative radii.
func (p Perturbation) validate() error {
	if !math.IsInf(p.Norm, 1) && p.Norm != 2 {
		return fmt.Errorf("unsupported perturbation norm %v (want inf or 2)", p.Norm)
	}
	if p.Eps < 0 {
		return fmt.Errorf("negative perturbation radius %v", p.Eps)
	}
	return nil
}

// InputInterval returns element-wise input bounds [x-eps, x+eps] as
// tensors. For the L2 ball this is the enclosing box, which is what
// interval propagation needs.
func InputInterval[B tensor.Backend](x *tensor.Tensor[float32, B], p Perturbation) (lower, upper *tensor.Tensor[float32, B]) {
	return x.AddScalar(-p.Eps), x.AddScalar(p.Eps)
}

// concretizeRow computes eps * ||a||_dual for one row of linear
// coefficients. The dual of Linf is L1; L2 is self-dual.
func (p Perturbation) concretizeRow(a []float64) float64 {
	if math.IsInf(p.Norm, 1) {
		sum := 0.0
		for _, v := range a {
			sum += math.Abs(v)
		}
		return p.Eps * sum
	}
	sum := 0.0
	for _, v := range a {
		sum += v * v
	}
	return p.Eps * math.Sqrt(sum)
}

// dualGradRow writes the subgradient of ||a||_dual into out.
func (p Perturbation) dualGradRow(a, out []float64) {
	if math.IsInf(p.Norm, 1) {
		for i, v := range a {
			switch {
			case v > 0:
				out[i] = 1
			case v < 0:
				out[i] = -1
			default:
				out[i] = 0
			}
		}
		return
	}
	norm := 0.0
	for _, v := range a {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i, v := range a {
		out[i] = v / norm
	}
}

// String returns a human-readable description of the perturbation.
func (p Perturbation) String() string {
	if math.IsInf(p.Norm, 1) {
		return fmt.Sprintf("Linf perturbation (eps=%g)", p.Eps)
	}
	return fmt.Sprintf("L%g perturbation (eps=%g)", p.Norm, p.Eps)
}

// concretize turns final linear bounds into concrete output bounds:
//
//	lb[s] = phiL[s]·x0 - eps*||phiL[s]||_dual + biasL[s]
//	ub[s] = phiU[s]·x0 + eps*||phiU[s]||_dual + biasU[s]
func (p Perturbation) concretize(x0 []float64, phiL, phiU *mat.Dense, biasL, biasU *mat.VecDense) (lb, ub []float64) {
	specs, _ := phiL.Dims()
	lb = make([]float64, specs)
	ub = make([]float64, specs)
	for s := 0; s < specs; s++ {
		rowL := phiL.RawRowView(s)
		rowU := phiU.RawRowView(s)
		dotL, dotU := 0.0, 0.0
		for i, x := range x0 {
			dotL += rowL[i] * x
			dotU += rowU[i] * x
		}
		lb[s] = dotL - p.concretizeRow(rowL) + biasL.AtVec(s)
		ub[s] = dotU + p.concretizeRow(rowU) + biasU.AtVec(s)
	}
	return lb, ub
}
