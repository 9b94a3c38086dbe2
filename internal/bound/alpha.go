package bound

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/verigo-ml/verigo/internal/optim"
)

// optimizedBounds runs alpha-CROWN for one sample: CROWN intermediate
// bounds stay fixed, while the lower-line slopes of every unstable ReLU
// neuron are tuned with Adam to push the final lower bounds up and the
// upper bounds down. The returned bounds are the elementwise best seen
// over all iterations, which keeps them sound under a non-monotonic
// optimization trajectory.
func (bm *BoundedModule[B]) optimizedBounds(x0 []float64, c *mat.Dense, p Perturbation, wantLinear bool) (lb, ub []float64, lin *sampleLinear, err error) {
	ctx := &sampleCtx{p: p, x0: x0}
	bm.crownIntermediates(ctx)

	// One slope vector per ReLU layer and bound side. Initialized to the
	// relaxation heuristic, so iteration zero reproduces plain CROWN.
	reluIdx := bm.reluIndices()
	alphaL := make(map[int][]float64, len(reluIdx))
	alphaU := make(map[int][]float64, len(reluIdx))
	params := make([][]float64, 0, 2*len(reluIdx))
	for _, i := range reluIdx {
		r := ctx.relax(i)
		aL := make([]float64, len(r.low))
		copy(aL, r.low)
		aU := make([]float64, len(r.low))
		copy(aU, r.low)
		alphaL[i] = aL
		alphaU[i] = aU
		params = append(params, aL, aU)
	}

	adam := optim.NewAdam(optim.AdamConfig{LR: bm.opts.LrAlpha})

	specs, _ := c.Dims()
	best := newBestBounds(specs)

	for iter := 0; iter < bm.opts.Iterations; iter++ {
		rec := &passRecord{
			phiL: make(map[int]*mat.Dense, len(reluIdx)),
			phiU: make(map[int]*mat.Dense, len(reluIdx)),
		}
		phiL, phiU, biasL, biasU := bm.backward(ctx, len(bm.layers), c, alphaL, alphaU, rec)
		lo, hi := p.concretize(x0, phiL, phiU, biasL, biasU)
		best.update(lo, hi)
		if wantLinear {
			lin = &sampleLinear{phiL: phiL, phiU: phiU, biasL: biasL, biasU: biasU}
		}

		if bm.opts.Verbose {
			fmt.Printf("  alpha iter %2d: worst lb %.6f, worst ub %.6f\n", iter, minOf(lo), maxOf(hi))
		}
		if iter == bm.opts.Iterations-1 {
			break
		}

		gradL := bm.slopeGradients(ctx, rec, alphaL, alphaU, reluIdx, false)
		gradU := bm.slopeGradients(ctx, rec, alphaL, alphaU, reluIdx, true)

		// Adam minimizes; the objective is sum(ub) - sum(lb), so the
		// lower-side gradients flip sign.
		grads := make([][]float64, 0, len(params))
		for _, i := range reluIdx {
			gL := gradL[i]
			for j := range gL {
				gL[j] = -gL[j]
			}
			grads = append(grads, gL, gradU[i])
		}
		adam.Step(params, grads)
		clampSlopes(params)
	}

	return best.lb, best.ub, lin, nil
}

// slopeGradients computes d(bound)/d(alpha) for every ReLU layer by a
// forward adjoint pass. The backward pass fixed the relaxation choices;
// by Danskin's theorem the gradient is the partial derivative at the
// worst-case input x* of each specification row, which the adjoint
// vector tracks layer by layer. For the upper side the roles of the
// coefficient signs are mirrored.
func (bm *BoundedModule[B]) slopeGradients(ctx *sampleCtx, rec *passRecord, alphaL, alphaU map[int][]float64, reluIdx []int, upperSide bool) map[int][]float64 {
	phi0 := rec.phi0L
	if upperSide {
		phi0 = rec.phi0U
	}
	specs, inSize := phi0.Dims()

	// adjoint at the input: the worst-case x per specification row
	g := make([][]float64, specs)
	dual := make([]float64, inSize)
	for s := 0; s < specs; s++ {
		g[s] = make([]float64, inSize)
		ctx.p.dualGradRow(phi0.RawRowView(s), dual)
		for i := 0; i < inSize; i++ {
			if upperSide {
				g[s][i] = ctx.x0[i] + ctx.p.Eps*dual[i]
			} else {
				g[s][i] = ctx.x0[i] - ctx.p.Eps*dual[i]
			}
		}
	}

	grads := make(map[int][]float64, len(reluIdx))
	for _, i := range reluIdx {
		grads[i] = make([]float64, bm.layers[i].inSize())
	}

	for i, l := range bm.layers {
		switch ll := l.(type) {
		case affine:
			for s := range g {
				g[s] = ll.forwardAdjoint(g[s])
			}

		case *reluLayer:
			r := ctx.relax(i)
			phi := rec.phiL[i]
			low := r.lowerSlopes(alphaL[i])
			if upperSide {
				phi = rec.phiU[i]
				low = r.lowerSlopes(alphaU[i])
			}
			grad := grads[i]
			for s := range g {
				row := phi.RawRowView(s)
				for j := 0; j < ll.size; j++ {
					v := row[j]
					if upperSide {
						// d(ub)/d(alpha) flows through negative
						// coefficients; intercepts attach to positive ones
						if r.unstable[j] && v < 0 {
							grad[j] += v * g[s][j]
						}
						if v >= 0 {
							g[s][j] = r.up[j]*g[s][j] + r.intercept[j]
						} else {
							g[s][j] = low[j] * g[s][j]
						}
					} else {
						if r.unstable[j] && v > 0 {
							grad[j] += v * g[s][j]
						}
						if v >= 0 {
							g[s][j] = low[j] * g[s][j]
						} else {
							g[s][j] = r.up[j]*g[s][j] + r.intercept[j]
						}
					}
				}
			}
		}
	}
	return grads
}

// reluIndices returns the layer indices of every ReLU, in order.
func (bm *BoundedModule[B]) reluIndices() []int {
	var idx []int
	for i, l := range bm.layers {
		if _, ok := l.(*reluLayer); ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// bestBounds tracks the elementwise tightest bounds across iterations.
type bestBounds struct {
	lb, ub []float64
	init   bool
}

func newBestBounds(specs int) *bestBounds {
	return &bestBounds{lb: make([]float64, specs), ub: make([]float64, specs)}
}

func (b *bestBounds) update(lo, hi []float64) {
	if !b.init {
		copy(b.lb, lo)
		copy(b.ub, hi)
		b.init = true
		return
	}
	for i := range lo {
		if lo[i] > b.lb[i] {
			b.lb[i] = lo[i]
		}
		if hi[i] < b.ub[i] {
			b.ub[i] = hi[i]
		}
	}
}

func clampSlopes(params [][]float64) {
	for _, p := range params {
		for i, v := range p {
			if v < 0 {
				p[i] = 0
			} else if v > 1 {
				p[i] = 1
			}
		}
	}
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
