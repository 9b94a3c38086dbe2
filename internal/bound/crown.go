package bound

import (
	"gonum.org/v1/gonum/mat"
)

// sampleCtx carries the per-sample state of a bound computation: the
// nominal input, the perturbation, and the pre-activation intermediate
// bounds of every ReLU layer.
type sampleCtx struct {
	p  Perturbation
	x0 []float64

	// lbs/ubs hold pre-activation bounds, keyed by ReLU layer index.
	lbs map[int][]float64
	ubs map[int][]float64

	relaxCache map[int]*reluRelax
}

func (ctx *sampleCtx) setIntermediate(layerIdx int, lo, hi []float64) {
	if ctx.lbs == nil {
		ctx.lbs = make(map[int][]float64)
		ctx.ubs = make(map[int][]float64)
	}
	l := make([]float64, len(lo))
	copy(l, lo)
	u := make([]float64, len(hi))
	copy(u, hi)
	ctx.lbs[layerIdx] = l
	ctx.ubs[layerIdx] = u
}

// reluRelax holds the linear relaxation of one ReLU layer, derived from
// its pre-activation bounds [l, u]:
//
//   - active (l >= 0): identity, slope 1 both sides
//   - inactive (u <= 0): zero, slope 0 both sides
//   - unstable (l < 0 < u): upper line through (l,0) and (u,u) with slope
//     u/(u-l) and intercept -l*u/(u-l); lower line z = alpha*x through the
//     origin for any alpha in [0,1]
type reluRelax struct {
	up        []float64 // upper line slope (or 0/1 for stable neurons)
	intercept []float64 // upper line intercept (0 for stable neurons)
	low       []float64 // default lower line slope
	unstable  []bool
}

// relax computes (and caches) the relaxation of the ReLU at layerIdx. The
// default lower slope follows the usual heuristic: 1 when u > -l (keeping
// the mostly-positive side exact), 0 otherwise.
func (ctx *sampleCtx) relax(layerIdx int) *reluRelax {
	if r, ok := ctx.relaxCache[layerIdx]; ok {
		return r
	}
	lo := ctx.lbs[layerIdx]
	hi := ctx.ubs[layerIdx]
	r := &reluRelax{
		up:        make([]float64, len(lo)),
		intercept: make([]float64, len(lo)),
		low:       make([]float64, len(lo)),
		unstable:  make([]bool, len(lo)),
	}
	for j := range lo {
		l, u := lo[j], hi[j]
		switch {
		case l >= 0:
			r.up[j] = 1
			r.low[j] = 1
		case u <= 0:
			// stays zero
		default:
			su := u / (u - l)
			r.up[j] = su
			r.intercept[j] = -su * l
			r.unstable[j] = true
			if u > -l {
				r.low[j] = 1
			}
		}
	}
	if ctx.relaxCache == nil {
		ctx.relaxCache = make(map[int]*reluRelax)
	}
	ctx.relaxCache[layerIdx] = r
	return r
}

// lowerSlopes returns the effective lower-line slopes for one ReLU layer:
// the optimized alphas where provided (unstable neurons only), the
// relaxation defaults elsewhere.
func (r *reluRelax) lowerSlopes(alphas []float64) []float64 {
	if alphas == nil {
		return r.low
	}
	eff := make([]float64, len(r.low))
	copy(eff, r.low)
	for j, a := range alphas {
		if r.unstable[j] {
			eff[j] = a
		}
	}
	return eff
}

// passRecord captures the coefficient matrices of a backward pass, needed
// by the slope-gradient computation: the coefficients over each ReLU
// output and over the input, for both bound sides.
type passRecord struct {
	phiL  map[int]*mat.Dense
	phiU  map[int]*mat.Dense
	phi0L *mat.Dense
	phi0U *mat.Dense
}

// backward propagates the specification matrix c from the output of layer
// endIdx-1 back to the network input, producing linear lower and upper
// bounds on c·z_{endIdx}:
//
//	phiL·x + biasL <= c·z(x) <= phiU·x + biasU
//
// alphaL/alphaU optionally override the lower-line slopes per ReLU layer
// (for the lower and upper bound side respectively). rec, when non-nil,
// records the intermediate coefficient matrices for gradient computation.
// Intermediate bounds for every ReLU below endIdx must already be in ctx.
func (bm *BoundedModule[B]) backward(ctx *sampleCtx, endIdx int, c *mat.Dense, alphaL, alphaU map[int][]float64, rec *passRecord) (phiL, phiU *mat.Dense, biasL, biasU *mat.VecDense) {
	specs, _ := c.Dims()
	phiL = mat.DenseCopyOf(c)
	phiU = mat.DenseCopyOf(c)
	biasL = mat.NewVecDense(specs, nil)
	biasU = mat.NewVecDense(specs, nil)

	for i := endIdx - 1; i >= 0; i-- {
		switch l := bm.layers[i].(type) {
		case affine:
			phiL = l.backwardA(phiL, biasL)
			phiU = l.backwardA(phiU, biasU)

		case *reluLayer:
			r := ctx.relax(i)
			lowL := r.lowerSlopes(alphaL[i])
			lowU := r.lowerSlopes(alphaU[i])
			if rec != nil {
				rec.phiL[i] = mat.DenseCopyOf(phiL)
				rec.phiU[i] = mat.DenseCopyOf(phiU)
			}
			for s := 0; s < specs; s++ {
				rowL := phiL.RawRowView(s)
				rowU := phiU.RawRowView(s)
				for j := 0; j < l.size; j++ {
					// lower bound: positive coefficients take the lower
					// line, negative take the upper line (and its
					// intercept); upper bound is the mirror image
					if v := rowL[j]; v >= 0 {
						rowL[j] = v * lowL[j]
					} else {
						rowL[j] = v * r.up[j]
						biasL.SetVec(s, biasL.AtVec(s)+v*r.intercept[j])
					}
					if v := rowU[j]; v >= 0 {
						rowU[j] = v * r.up[j]
						biasU.SetVec(s, biasU.AtVec(s)+v*r.intercept[j])
					} else {
						rowU[j] = v * lowU[j]
					}
				}
			}
		}
	}

	if rec != nil {
		rec.phi0L = phiL
		rec.phi0U = phiU
	}
	return phiL, phiU, biasL, biasU
}

// crownIntermediates computes the pre-activation bounds of every ReLU
// layer with full backward passes, in layer order so each pass can rely
// on the bounds of the ReLUs below it.
func (bm *BoundedModule[B]) crownIntermediates(ctx *sampleCtx) {
	for i, l := range bm.layers {
		rl, ok := l.(*reluLayer)
		if !ok {
			continue
		}
		c := identityDense(rl.size)
		phiL, phiU, biasL, biasU := bm.backward(ctx, i, c, nil, nil, nil)
		lo, hi := ctx.p.concretize(ctx.x0, phiL, phiU, biasL, biasU)
		ctx.setIntermediate(i, lo, hi)
	}
}

func identityDense(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d
}
