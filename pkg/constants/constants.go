// Package constants provides shared constants for the portfolio-optimizer service.
package constants

import "time"

// Numeric tolerances
const (
	// ConstraintTolerance is the maximum violation magnitude at which a
	// constraint still counts as satisfied.
	ConstraintTolerance = 1e-6

	// SimplexTolerance is the permitted deviation of a weight vector's sum
	// from 1 after projection.
	SimplexTolerance = 1e-6

	// PenaltyCoefficient scales the squared constraint violations subtracted
	// from the objective value.
	PenaltyCoefficient = 1000.0
)

// Swarm defaults
const (
	// DefaultParticles is the default swarm population size.
	DefaultParticles = 50

	// DefaultMaxIterations is the default iteration budget per job.
	DefaultMaxIterations = 100

	// DefaultInertia is the default velocity inertia weight.
	DefaultInertia = 0.5

	// DefaultCognitive is the default personal-best attraction coefficient.
	DefaultCognitive = 0.5

	// DefaultSocial is the default global-best attraction coefficient.
	DefaultSocial = 0.5

	// DefaultStagnationWindow is the number of consecutive iterations without
	// meaningful global-best improvement before the search stops.
	DefaultStagnationWindow = 20

	// StagnationEpsilon is the minimum global-best improvement that resets
	// the stagnation window.
	StagnationEpsilon = 1e-9

	// MaxRepairPasses bounds the clamp-and-rescale loop used to project a
	// candidate onto the simplex.
	MaxRepairPasses = 8

	// InitialVelocityScale bounds the magnitude of randomly initialized
	// particle velocities.
	InitialVelocityScale = 0.1
)

// Governor defaults
const (
	// DefaultQueueSize is the default capacity of the pending-job queue.
	DefaultQueueSize = 16

	// DefaultJobTimeout is the default per-job deadline.
	DefaultJobTimeout = 10 * time.Second
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address.
	DefaultServerAddress = ":8080"

	// DefaultMaxBodyBytes is the default maximum request body size (1 MB).
	DefaultMaxBodyBytes int64 = 1024 * 1024

	// DefaultShutdownTimeout bounds graceful shutdown on termination.
	DefaultShutdownTimeout = 15 * time.Second
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name.
	DefaultConfigFile = "config.yaml"
)
