package swarm

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/iwvelando/portfolio-optimizer/internal/portfolio"
	"github.com/iwvelando/portfolio-optimizer/pkg/constants"
	"github.com/iwvelando/portfolio-optimizer/pkg/mathutil"
	"go.uber.org/zap"
)

// TerminationReason describes why a search stopped.
type TerminationReason string

const (
	// TerminationBudgetExhausted means the configured iteration budget ran out.
	TerminationBudgetExhausted TerminationReason = "budget_exhausted"

	// TerminationConverged means the global best stopped improving.
	TerminationConverged TerminationReason = "converged"

	// TerminationDeadlineExceeded means the job deadline elapsed mid-search;
	// the best-so-far candidate is still returned.
	TerminationDeadlineExceeded TerminationReason = "deadline_exceeded"
)

// Result is the outcome of one swarm run.
type Result struct {
	Weights     []float64
	Score       portfolio.Score
	Iterations  int
	Termination TerminationReason
}

// Optimizer runs one particle swarm search for one request. Not safe for
// concurrent use; create one per job.
type Optimizer struct {
	logger *zap.Logger
	cfg    Config
	req    *portfolio.Request
	rng    *rand.Rand

	particles []*particle

	bestPosition []float64
	bestScore    portfolio.Score
	bestValid    bool
}

// New constructs an optimizer for the given validated request.
func New(logger *zap.Logger, cfg Config, req *portfolio.Request) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.WithDefaults()
	return &Optimizer{
		logger: logger,
		cfg:    cfg,
		req:    req,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Run executes the search until the iteration budget is exhausted, the global
// best stagnates, or ctx is done. On deadline/cancellation the best-so-far
// candidate is returned with TerminationDeadlineExceeded. An error is
// returned only for numeric faults, which validated requests should never
// produce.
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	if err := o.initialize(); err != nil {
		return nil, err
	}

	stagnant := 0
	iterations := 0
	termination := TerminationBudgetExhausted

	for iter := 0; iter < o.cfg.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			termination = TerminationDeadlineExceeded
		default:
		}
		if termination == TerminationDeadlineExceeded {
			break
		}

		previousBest := o.bestScore.Fitness
		if err := o.step(); err != nil {
			return nil, err
		}
		iterations++

		if o.bestValid && o.bestScore.Fitness-previousBest > constants.StagnationEpsilon {
			stagnant = 0
		} else {
			stagnant++
		}
		if stagnant >= o.cfg.StagnationWindow {
			termination = TerminationConverged
			break
		}
	}

	if !o.bestValid || !mathutil.IsFinite(o.bestScore.Fitness) {
		return nil, fmt.Errorf("%w: no evaluable candidate after simplex projection", portfolio.ErrNumericFault)
	}

	result := &Result{
		Weights:     append([]float64(nil), o.bestPosition...),
		Score:       o.bestScore,
		Iterations:  iterations,
		Termination: termination,
	}

	o.logger.Debug("swarm run finished",
		zap.String("op", "swarm.Run"),
		zap.Int("iterations", iterations),
		zap.String("termination", string(termination)),
		zap.Bool("feasible", result.Score.Feasible),
		zap.Float64("fitness", result.Score.Fitness),
	)

	return result, nil
}

// initialize seeds the population uniformly within bounds and records the
// initial personal and global bests.
func (o *Optimizer) initialize() error {
	n := o.req.Dimension
	o.particles = make([]*particle, o.cfg.Particles)
	o.bestPosition = make([]float64, n)
	o.bestValid = false

	for i := range o.particles {
		p := &particle{
			position:     make([]float64, n),
			velocity:     make([]float64, n),
			bestPosition: make([]float64, n),
		}
		for d := 0; d < n; d++ {
			lo, hi := o.req.LowerBounds[d], o.req.UpperBounds[d]
			p.position[d] = lo + o.rng.Float64()*(hi-lo)
			p.velocity[d] = (o.rng.Float64()*2 - 1) * constants.InitialVelocityScale
		}

		score, err := o.evaluate(p.position)
		if err != nil {
			return err
		}
		p.observe(score)
		o.observeGlobal(p.position, score)
		o.particles[i] = p
	}

	return nil
}

// step advances every particle one iteration: velocity update toward the
// personal and global bests, position update, bound clamp, simplex
// projection, evaluation, best bookkeeping.
func (o *Optimizer) step() error {
	for _, p := range o.particles {
		for d := range p.position {
			r1 := o.rng.Float64()
			r2 := o.rng.Float64()
			cognitive := o.cfg.Cognitive * r1 * (p.bestPosition[d] - p.position[d])
			social := o.cfg.Social * r2 * (o.bestPosition[d] - p.position[d])
			p.velocity[d] = o.cfg.Inertia*p.velocity[d] + cognitive + social
			p.position[d] = mathutil.Clamp(p.position[d]+p.velocity[d], o.req.LowerBounds[d], o.req.UpperBounds[d])
		}

		score, err := o.evaluate(p.position)
		if err != nil {
			return err
		}
		p.observe(score)
		o.observeGlobal(p.position, score)
	}

	return nil
}

// evaluate projects the candidate onto the simplex and scores it. Candidates
// the projection cannot repair are infeasible by construction and rank below
// every evaluated candidate.
func (o *Optimizer) evaluate(weights []float64) (portfolio.Score, error) {
	if !projectSimplex(weights, o.req.LowerBounds, o.req.UpperBounds) {
		return portfolio.Score{Feasible: false, Fitness: math.Inf(-1)}, nil
	}
	return portfolio.Evaluate(weights, o.req)
}

func (o *Optimizer) observeGlobal(position []float64, score portfolio.Score) {
	if !o.bestValid || score.Fitness > o.bestScore.Fitness {
		o.bestScore = score
		copy(o.bestPosition, position)
		o.bestValid = true
	}
}
