package swarm

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/iwvelando/portfolio-optimizer/internal/portfolio"
	"github.com/iwvelando/portfolio-optimizer/internal/tax"
	"github.com/iwvelando/portfolio-optimizer/pkg/constants"
	"github.com/iwvelando/portfolio-optimizer/pkg/mathutil"
	"go.uber.org/zap"
)

func testRequest() *portfolio.Request {
	return &portfolio.Request{
		Dimension:               3,
		LowerBounds:             []float64{0, 0, 0},
		UpperBounds:             []float64{1, 1, 1},
		InitialCapital:          1000000,
		Salary:                  50000,
		RequiredIncome:          0,
		MinDivGrowth:            0,
		MinCAGR:                 0,
		MinYield:                0,
		DivPreference:           0.5,
		CAGRPreference:          0.3,
		YieldPreference:         0.2,
		FilingStatus:            tax.Single,
		RedistributionThreshold: 1,
		Columns: portfolio.Columns{
			DivGrowthRates: []float64{0.5, 0, 0},
			CAGRRates:      []float64{0.5, 0, 0},
			Yields:         []float64{0.5, 0, 0},
			ExpenseRatios:  []float64{0, 0, 0},
			Sector:         []int{1, 2, 3},
			Qualified:      []bool{true, true, true},
		},
	}
}

func runOptimizer(t *testing.T, req *portfolio.Request, cfg Config) *Result {
	t.Helper()
	result, err := New(zap.NewNop(), cfg, req).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return result
}

func assertCandidateInvariants(t *testing.T, req *portfolio.Request, weights []float64) {
	t.Helper()
	if len(weights) != req.Dimension {
		t.Fatalf("expected %d weights, got %d", req.Dimension, len(weights))
	}
	if sum := mathutil.Sum(weights); !mathutil.WithinTolerance(sum, 1, 1e-4) {
		t.Errorf("weights sum to %v, expected 1", sum)
	}
	for i, w := range weights {
		if w < req.LowerBounds[i]-1e-12 || w > req.UpperBounds[i]+1e-12 {
			t.Errorf("weight[%d] = %v outside bounds [%v, %v]", i, w, req.LowerBounds[i], req.UpperBounds[i])
		}
	}
}

func TestRunConvergesToDominantAsset(t *testing.T) {
	// Scenario: one asset dominates every metric with loose constraints, so
	// the search should pile onto it within simplex limits.
	req := testRequest()
	result := runOptimizer(t, req, Config{Seed: 7})

	assertCandidateInvariants(t, req, result.Weights)
	if result.Weights[0] < 0.9 {
		t.Errorf("expected dominant asset weight near 1, got %v (weights %v)", result.Weights[0], result.Weights)
	}
	if !result.Score.Feasible {
		t.Errorf("expected feasible result, violations: %v", result.Score.Violations)
	}
}

func TestRunUnsatisfiableConstraintsReportsInfeasible(t *testing.T) {
	// Scenario: the CAGR floor exceeds every asset's CAGR, so no weighting
	// can satisfy it; the best candidate must be flagged infeasible with the
	// violation magnitude matching the evaluator's formula.
	req := testRequest()
	req.MinCAGR = 0.9
	req.Columns.CAGRRates = []float64{0.1, 0.05, 0.02}

	result := runOptimizer(t, req, Config{Seed: 7, MaxIterations: 40, StagnationWindow: 1000})

	if result.Score.Feasible {
		t.Fatal("expected infeasible result")
	}
	if result.Termination != TerminationBudgetExhausted {
		t.Errorf("expected budget_exhausted, got %s", result.Termination)
	}
	if result.Iterations != 40 {
		t.Errorf("expected 40 iterations, got %d", result.Iterations)
	}

	score, err := portfolio.Evaluate(result.Weights, req)
	if err != nil {
		t.Fatalf("re-evaluation failed: %v", err)
	}
	reported := result.Score.Violations[portfolio.ViolationCAGR]
	recomputed := score.Violations[portfolio.ViolationCAGR]
	if math.Abs(reported-recomputed) > 1e-9 {
		t.Errorf("reported violation %v does not match evaluator formula %v", reported, recomputed)
	}
	if reported <= 0 {
		t.Error("expected a positive CAGR violation magnitude")
	}
}

func TestRunDeterministicUnderFixedSeed(t *testing.T) {
	req := testRequest()
	cfg := Config{Seed: 42, MaxIterations: 30}

	first := runOptimizer(t, req, cfg)
	second := runOptimizer(t, req, cfg)

	if !reflect.DeepEqual(first.Weights, second.Weights) {
		t.Errorf("weights differ across runs:\n%v\n%v", first.Weights, second.Weights)
	}
	if first.Score.Fitness != second.Score.Fitness {
		t.Errorf("fitness differs across runs: %v != %v", first.Score.Fitness, second.Score.Fitness)
	}
	if first.Iterations != second.Iterations || first.Termination != second.Termination {
		t.Errorf("run shape differs: %d/%s vs %d/%s",
			first.Iterations, first.Termination, second.Iterations, second.Termination)
	}
}

func TestRunGlobalBestMonotonic(t *testing.T) {
	req := testRequest()
	o := New(zap.NewNop(), Config{Seed: 3, MaxIterations: 50}, req)

	if err := o.initialize(); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	previous := math.Inf(-1)
	for i := 0; i < 50; i++ {
		if err := o.step(); err != nil {
			t.Fatalf("step failed: %v", err)
		}
		if o.bestScore.Fitness < previous {
			t.Fatalf("global best regressed at iteration %d: %v < %v", i, o.bestScore.Fitness, previous)
		}
		previous = o.bestScore.Fitness
	}
}

func TestRunDeadlineReturnsBestSoFar(t *testing.T) {
	req := testRequest()
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // expire before the first iteration

	result, err := New(zap.NewNop(), Config{Seed: 11, MaxIterations: 100}, req).Run(ctx)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Termination != TerminationDeadlineExceeded {
		t.Errorf("expected deadline_exceeded, got %s", result.Termination)
	}
	if result.Iterations >= 100 {
		t.Errorf("expected iterations below budget, got %d", result.Iterations)
	}
	assertCandidateInvariants(t, req, result.Weights)
}

func TestRunStagnationTerminatesEarly(t *testing.T) {
	// A one-asset-dominant problem converges almost immediately, so a small
	// stagnation window should stop the run well under the budget.
	req := testRequest()
	result := runOptimizer(t, req, Config{Seed: 5, MaxIterations: 10000, StagnationWindow: 10})

	if result.Termination != TerminationConverged {
		t.Errorf("expected converged, got %s", result.Termination)
	}
	if result.Iterations >= 10000 {
		t.Errorf("expected early termination, ran %d iterations", result.Iterations)
	}
}

func TestRunRespectsTightBounds(t *testing.T) {
	req := testRequest()
	req.LowerBounds = []float64{0.1, 0.2, 0.1}
	req.UpperBounds = []float64{0.5, 0.6, 0.4}

	result := runOptimizer(t, req, Config{Seed: 9})
	assertCandidateInvariants(t, req, result.Weights)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()

	if cfg.Particles != constants.DefaultParticles {
		t.Errorf("Particles = %d, expected %d", cfg.Particles, constants.DefaultParticles)
	}
	if cfg.MaxIterations != constants.DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, expected %d", cfg.MaxIterations, constants.DefaultMaxIterations)
	}
	if cfg.Inertia != constants.DefaultInertia || cfg.Cognitive != constants.DefaultCognitive || cfg.Social != constants.DefaultSocial {
		t.Error("velocity coefficients did not default")
	}
	if cfg.Seed == 0 {
		t.Error("expected a non-zero generated seed")
	}

	custom := Config{Particles: 10, MaxIterations: 5, Seed: 2}.WithDefaults()
	if custom.Particles != 10 || custom.MaxIterations != 5 || custom.Seed != 2 {
		t.Error("explicit values must not be overridden")
	}
}

func TestProjectSimplex(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		lower   []float64
		upper   []float64
		ok      bool
	}{
		{
			name:    "rescale down",
			weights: []float64{0.8, 0.8, 0.8},
			lower:   []float64{0, 0, 0},
			upper:   []float64{1, 1, 1},
			ok:      true,
		},
		{
			name:    "rescale up",
			weights: []float64{0.1, 0.2, 0.1},
			lower:   []float64{0, 0, 0},
			upper:   []float64{1, 1, 1},
			ok:      true,
		},
		{
			name:    "degenerate zero vector",
			weights: []float64{0, 0, 0},
			lower:   []float64{0, 0, 0},
			upper:   []float64{1, 1, 1},
			ok:      true,
		},
		{
			name:    "box cannot reach the simplex",
			weights: []float64{0.2, 0.2},
			lower:   []float64{0, 0},
			upper:   []float64{0.3, 0.3},
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights := append([]float64(nil), tt.weights...)
			ok := projectSimplex(weights, tt.lower, tt.upper)
			if ok != tt.ok {
				t.Fatalf("projectSimplex ok = %v, expected %v (weights %v)", ok, tt.ok, weights)
			}
			if ok {
				if sum := mathutil.Sum(weights); !mathutil.WithinTolerance(sum, 1, constants.SimplexTolerance) {
					t.Errorf("projected sum = %v, expected 1", sum)
				}
				for i, w := range weights {
					if w < tt.lower[i] || w > tt.upper[i] {
						t.Errorf("weight[%d] = %v outside [%v, %v]", i, w, tt.lower[i], tt.upper[i])
					}
				}
			}
		})
	}
}

func TestRunDeadlineMidSearch(t *testing.T) {
	req := testRequest()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	// A huge budget with no stagnation cutoff keeps the search running until
	// the deadline fires.
	result, err := New(zap.NewNop(), Config{Seed: 13, MaxIterations: 1 << 30, StagnationWindow: 1 << 30}, req).Run(ctx)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Termination != TerminationDeadlineExceeded {
		t.Errorf("expected deadline_exceeded, got %s", result.Termination)
	}
	if result.Iterations >= 1<<30 {
		t.Error("iterations should be below the configured budget")
	}
	assertCandidateInvariants(t, req, result.Weights)
}
