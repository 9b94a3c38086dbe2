package bound

import (
	"gonum.org/v1/gonum/mat"
)

// ibpForward propagates an interval, represented as center/radius, through
// the network. When ctx is non-nil the preLo-activation bounds of every ReLU
// layer are recorded into it. Returns the output interval as lower/upper.
func (bm *BoundedModule[B]) ibpForward(x0 []float64, p Perturbation, ctx *sampleCtx) (lo, hi []float64) {
	center := make([]float64, len(x0))
	copy(center, x0)
	radius := make([]float64, len(x0))
	for i := range radius {
		radius[i] = p.Eps
	}

	for i, l := range bm.layers {
		switch ll := l.(type) {
		case affine:
			center, radius = ll.intervalArm(center, radius)
		case *reluLayer:
			preLo := make([]float64, ll.size)
			preHi := make([]float64, ll.size)
			for j := range preLo {
				preLo[j] = center[j] - radius[j]
				preHi[j] = center[j] + radius[j]
			}
			if ctx != nil {
				ctx.setIntermediate(i, preLo, preHi)
			}
			// clamp to [0, inf) and re-center
			for j := range preLo {
				if preLo[j] < 0 {
					preLo[j] = 0
				}
				if preHi[j] < 0 {
					preHi[j] = 0
				}
				center[j] = (preLo[j] + preHi[j]) / 2
				radius[j] = (preHi[j] - preLo[j]) / 2
			}
		}
	}

	lo = make([]float64, len(center))
	hi = make([]float64, len(center))
	for i := range center {
		lo[i] = center[i] - radius[i]
		hi[i] = center[i] + radius[i]
	}
	return lo, hi
}

// ibpBounds computes final IBP bounds on C·f(x) by combining the output
// interval with the sign structure of each specification row.
func (bm *BoundedModule[B]) ibpBounds(x0 []float64, c *mat.Dense, p Perturbation) (lb, ub []float64) {
	lo, hi := bm.ibpForward(x0, p, nil)

	specs, outSize := c.Dims()
	lb = make([]float64, specs)
	ub = make([]float64, specs)
	for j := 0; j < specs; j++ {
		row := c.RawRowView(j)
		sumL, sumU := 0.0, 0.0
		for k := 0; k < outSize; k++ {
			v := row[k]
			if v >= 0 {
				sumL += v * lo[k]
				sumU += v * hi[k]
			} else {
				sumL += v * hi[k]
				sumU += v * lo[k]
			}
		}
		lb[j] = sumL
		ub[j] = sumU
	}
	return lb, ub
}

// ibpIntermediates fills ctx with IBP preLo-activation bounds for every
// ReLU layer.
func (bm *BoundedModule[B]) ibpIntermediates(ctx *sampleCtx) {
	bm.ibpForward(ctx.x0, ctx.p, ctx)
}
