// Package governor bounds how many swarm optimizations run concurrently and
// applies per-job deadlines. It is the only synchronization point in the
// service: each job owns its swarm and evaluator calls outright.
package governor

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/portfolio-optimizer/internal/portfolio"
	"github.com/iwvelando/portfolio-optimizer/internal/swarm"
	"github.com/iwvelando/portfolio-optimizer/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrQueueFull signals that the pending-job queue is at capacity. The caller
// may retry; no partial work was performed.
var ErrQueueFull = errors.New("job queue full")

// ErrClosed signals a submission to a governor that has shut down.
var ErrClosed = errors.New("governor closed")

// Config controls the worker pool and admission queue. Zero values fall back
// to defaults; Slots defaults to GOMAXPROCS, which automaxprocs aligns with
// the container CPU quota.
type Config struct {
	Slots      int           `yaml:"slots"`
	QueueSize  int           `yaml:"queueSize"`
	JobTimeout time.Duration `yaml:"jobTimeout"`

	// Swarm is passed through to each job's optimizer. Its zero values are
	// defaulted per job so that an unset seed stays random per run.
	Swarm swarm.Config `yaml:"swarm"`
}

// WithDefaults returns a copy of the config with zero values replaced.
func (c Config) WithDefaults() Config {
	if c.Slots <= 0 {
		c.Slots = runtime.GOMAXPROCS(0)
	}
	if c.QueueSize <= 0 {
		c.QueueSize = constants.DefaultQueueSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = constants.DefaultJobTimeout
	}
	return c
}

type job struct {
	id  uuid.UUID
	req *portfolio.Request
	ctx context.Context
	out chan outcome
}

type outcome struct {
	result *swarm.Result
	err    error
}

// Governor owns a fixed pool of workers consuming a bounded FIFO queue.
type Governor struct {
	logger *zap.Logger
	cfg    Config

	queue   chan *job
	workers *errgroup.Group
	baseCtx context.Context
	cancel  context.CancelFunc
	once    sync.Once

	running atomic.Int64
}

// New starts the worker pool. Callers must Close the governor to release it.
func New(logger *zap.Logger, cfg Config) *Governor {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.WithDefaults()

	baseCtx, cancel := context.WithCancel(context.Background())
	g := &Governor{
		logger:  logger,
		cfg:     cfg,
		queue:   make(chan *job, cfg.QueueSize),
		baseCtx: baseCtx,
		cancel:  cancel,
	}

	g.workers, _ = errgroup.WithContext(baseCtx)
	for i := 0; i < cfg.Slots; i++ {
		g.workers.Go(g.work)
	}

	logger.Info("governor started",
		zap.String("op", "governor.New"),
		zap.Int("slots", cfg.Slots),
		zap.Int("queueSize", cfg.QueueSize),
		zap.Duration("jobTimeout", cfg.JobTimeout),
	)

	return g
}

// Submit runs one optimization job. It enqueues without blocking and returns
// ErrQueueFull immediately when the queue is at capacity. The job's deadline
// starts at admission; if it elapses mid-search, the best-so-far result is
// returned with its termination reason set rather than an error.
func (g *Governor) Submit(ctx context.Context, req *portfolio.Request) (*swarm.Result, error) {
	jobCtx, cancel := context.WithTimeout(ctx, g.cfg.JobTimeout)
	defer cancel()

	j := &job{
		id:  uuid.New(),
		req: req,
		ctx: jobCtx,
		out: make(chan outcome, 1),
	}

	select {
	case g.queue <- j:
	default:
		cancel()
		g.logger.Warn("job rejected, queue full",
			zap.String("op", "governor.Submit"),
			zap.String("jobID", j.id.String()),
		)
		return nil, ErrQueueFull
	}

	select {
	case out := <-j.out:
		return out.result, out.err
	case <-ctx.Done():
		// The deferred cancel abandons the job whether queued or running.
		return nil, ctx.Err()
	case <-g.baseCtx.Done():
		return nil, ErrClosed
	}
}

// Close stops intake and waits for in-flight jobs' workers to exit.
func (g *Governor) Close() {
	g.once.Do(func() {
		g.cancel()
		_ = g.workers.Wait()
		g.logger.Info("governor stopped", zap.String("op", "governor.Close"))
	})
}

func (g *Governor) work() error {
	for {
		select {
		case <-g.baseCtx.Done():
			return nil
		case j := <-g.queue:
			g.run(j)
		}
	}
}

func (g *Governor) run(j *job) {
	// Abandoned while queued: the submitter is no longer waiting.
	if err := j.ctx.Err(); err != nil {
		j.out <- outcome{err: err}
		return
	}

	g.running.Add(1)
	defer g.running.Add(-1)

	start := time.Now()
	result, err := swarm.New(g.logger, g.cfg.Swarm, j.req).Run(j.ctx)
	elapsed := time.Since(start)

	if err != nil {
		g.logger.Error("job failed",
			zap.String("op", "governor.run"),
			zap.String("jobID", j.id.String()),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		j.out <- outcome{err: err}
		return
	}

	g.logger.Info("job completed",
		zap.String("op", "governor.run"),
		zap.String("jobID", j.id.String()),
		zap.Duration("duration", elapsed),
		zap.Int("iterations", result.Iterations),
		zap.String("termination", string(result.Termination)),
		zap.Bool("feasible", result.Score.Feasible),
	)
	j.out <- outcome{result: result}
}
