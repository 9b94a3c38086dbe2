package optim

import (
	"math"
	"testing"
)

// TestAdam_Defaults verifies default configuration values.
func TestAdam_Defaults(t *testing.T) {
	a := NewAdam(AdamConfig{})
	if a.GetLR() != 0.001 {
		t.Errorf("default LR = %v, want 0.001", a.GetLR())
	}
	if a.GetTimestep() != 0 {
		t.Errorf("initial timestep = %d, want 0", a.GetTimestep())
	}
}

// TestAdam_FirstStepSize verifies the bias-corrected first step moves
// each parameter by approximately lr in the descent direction.
func TestAdam_FirstStepSize(t *testing.T) {
	a := NewAdam(AdamConfig{LR: 0.1})
	params := [][]float64{{1.0, -2.0}}
	grads := [][]float64{{0.5, -3.0}}

	a.Step(params, grads)

	// after bias correction m_hat = g and v_hat = g^2, so the update is
	// lr * g / (|g| + eps) = lr * sign(g)
	if math.Abs(params[0][0]-0.9) > 1e-6 {
		t.Errorf("param[0] = %v, want ~0.9", params[0][0])
	}
	if math.Abs(params[0][1]-(-1.9)) > 1e-6 {
		t.Errorf("param[1] = %v, want ~-1.9", params[0][1])
	}
	if a.GetTimestep() != 1 {
		t.Errorf("timestep = %d, want 1", a.GetTimestep())
	}
}

// TestAdam_MinimizesQuadratic verifies convergence on f(x) = (x-3)^2.
func TestAdam_MinimizesQuadratic(t *testing.T) {
	a := NewAdam(AdamConfig{LR: 0.1})
	params := [][]float64{{0.0}}

	for i := 0; i < 500; i++ {
		grads := [][]float64{{2 * (params[0][0] - 3)}}
		a.Step(params, grads)
	}

	if math.Abs(params[0][0]-3) > 0.01 {
		t.Errorf("converged to %v, want ~3", params[0][0])
	}
}

// TestAdam_IndependentGroups verifies moment state is kept per group.
func TestAdam_IndependentGroups(t *testing.T) {
	a := NewAdam(AdamConfig{LR: 0.05})
	params := [][]float64{{0.0}, {0.0}}

	// group 0 minimizes (x-1)^2, group 1 minimizes (x+1)^2
	for i := 0; i < 300; i++ {
		grads := [][]float64{
			{2 * (params[0][0] - 1)},
			{2 * (params[1][0] + 1)},
		}
		a.Step(params, grads)
	}

	if math.Abs(params[0][0]-1) > 0.01 {
		t.Errorf("group 0 converged to %v, want ~1", params[0][0])
	}
	if math.Abs(params[1][0]+1) > 0.01 {
		t.Errorf("group 1 converged to %v, want ~-1", params[1][0])
	}
}

// TestAdam_SetLR verifies learning rate updates take effect.
func TestAdam_SetLR(t *testing.T) {
	a := NewAdam(AdamConfig{LR: 0.1})
	a.SetLR(0.5)
	if a.GetLR() != 0.5 {
		t.Errorf("LR = %v, want 0.5", a.GetLR())
	}

	params := [][]float64{{0.0}}
	a.Step(params, [][]float64{{1.0}})
	if math.Abs(params[0][0]+0.5) > 1e-6 {
		t.Errorf("param = %v, want ~-0.5 after one step at lr 0.5", params[0][0])
	}
}
