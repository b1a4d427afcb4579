package swarm

import (
	"github.com/iwvelando/portfolio-optimizer/pkg/constants"
	"github.com/iwvelando/portfolio-optimizer/pkg/mathutil"
)

// projectSimplex rescales weights in place so they sum to 1 while staying
// within per-asset bounds. Rescaling preserves relative proportions; clamping
// can disturb the sum, so the pass repeats up to a fixed bound. Returns false
// when the box and the simplex could not be reconciled within the budget, in
// which case the candidate counts as infeasible by construction.
func projectSimplex(weights, lower, upper []float64) bool {
	for pass := 0; pass < constants.MaxRepairPasses; pass++ {
		sum := mathutil.Sum(weights)
		if mathutil.WithinTolerance(sum, 1, constants.SimplexTolerance) {
			return true
		}

		if sum <= 0 {
			// Degenerate candidate; restart from an even spread.
			even := 1.0 / float64(len(weights))
			for i := range weights {
				weights[i] = even
			}
		} else {
			scale := 1 / sum
			for i := range weights {
				weights[i] *= scale
			}
		}

		for i := range weights {
			weights[i] = mathutil.Clamp(weights[i], lower[i], upper[i])
		}
	}

	return mathutil.WithinTolerance(mathutil.Sum(weights), 1, constants.SimplexTolerance)
}
