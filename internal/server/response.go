package server

import (
	"github.com/iwvelando/portfolio-optimizer/internal/portfolio"
	"github.com/iwvelando/portfolio-optimizer/internal/swarm"
)

// OptimizationResponse is the wire form of an optimization result.
type OptimizationResponse struct {
	Weights           []float64          `json:"weights"`
	Feasible          bool               `json:"feasible"`
	Fitness           float64            `json:"fitness"`
	Metrics           portfolio.Metrics  `json:"metrics"`
	Violations        map[string]float64 `json:"violations,omitempty"`
	Iterations        int                `json:"iterations"`
	TerminationReason string             `json:"termination_reason"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// buildResponse maps an internal swarm result onto the response contract.
func buildResponse(result *swarm.Result) OptimizationResponse {
	return OptimizationResponse{
		Weights:           result.Weights,
		Feasible:          result.Score.Feasible,
		Fitness:           result.Score.Fitness,
		Metrics:           result.Score.Metrics,
		Violations:        result.Score.Violations,
		Iterations:        result.Iterations,
		TerminationReason: string(result.Termination),
	}
}
