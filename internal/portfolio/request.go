// Package portfolio defines the optimization request/result data model and
// the constraint evaluator that scores candidate allocations.
package portfolio

import (
	"fmt"

	"github.com/iwvelando/portfolio-optimizer/internal/tax"
	"github.com/iwvelando/portfolio-optimizer/pkg/mathutil"
)

// Request describes one portfolio optimization problem. All per-asset
// sequences must have length Dimension.
type Request struct {
	Dimension   int       `json:"dimension"`
	LowerBounds []float64 `json:"lower_bounds"`
	UpperBounds []float64 `json:"upper_bounds"`

	InitialCapital float64 `json:"initial_capital"`
	Salary         float64 `json:"salary"`
	RequiredIncome float64 `json:"required_income"`

	MinDivGrowth float64 `json:"min_div_growth"`
	MinCAGR      float64 `json:"min_cagr"`
	MinYield     float64 `json:"min_yield"`

	DivPreference   float64 `json:"div_preference"`
	CAGRPreference  float64 `json:"cagr_preference"`
	YieldPreference float64 `json:"yield_preference"`

	FilingStatus tax.FilingStatus `json:"filing_status"`

	RedistributionThreshold float64 `json:"redistribution_threshold"`

	Columns Columns `json:"columns"`
}

// Columns holds the per-asset data series.
type Columns struct {
	DivGrowthRates []float64 `json:"div_growth_rates"`
	CAGRRates      []float64 `json:"cagr_rates"`
	Yields         []float64 `json:"yields"`
	ExpenseRatios  []float64 `json:"expense_ratios"`
	Sector         []int     `json:"sector"`
	Qualified      []bool    `json:"qualified"`
}

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request field %s: %s", e.Field, e.Reason)
}

// Validate checks the request against the contract. It returns a
// *ValidationError naming the violated field, or nil if the request is
// admissible. No optimization work is performed.
func (r *Request) Validate() error {
	if r.Dimension <= 0 {
		return &ValidationError{Field: "dimension", Reason: "must be a positive integer"}
	}

	if len(r.LowerBounds) != r.Dimension {
		return &ValidationError{Field: "lower_bounds", Reason: fmt.Sprintf("length %d does not match dimension %d", len(r.LowerBounds), r.Dimension)}
	}
	if len(r.UpperBounds) != r.Dimension {
		return &ValidationError{Field: "upper_bounds", Reason: fmt.Sprintf("length %d does not match dimension %d", len(r.UpperBounds), r.Dimension)}
	}
	for i := range r.LowerBounds {
		if r.LowerBounds[i] > r.UpperBounds[i] {
			return &ValidationError{Field: "lower_bounds", Reason: fmt.Sprintf("lower bound %v exceeds upper bound %v at index %d", r.LowerBounds[i], r.UpperBounds[i], i)}
		}
	}

	// The per-asset box must be able to intersect the fully-invested simplex.
	if sum := mathutil.Sum(r.UpperBounds); sum < 1 {
		return &ValidationError{Field: "upper_bounds", Reason: fmt.Sprintf("sum of upper bounds %v is less than 1; problem infeasible", sum)}
	}
	if sum := mathutil.Sum(r.LowerBounds); sum > 1 {
		return &ValidationError{Field: "lower_bounds", Reason: fmt.Sprintf("sum of lower bounds %v exceeds 1; problem infeasible", sum)}
	}

	if r.InitialCapital < 0 {
		return &ValidationError{Field: "initial_capital", Reason: "must be non-negative"}
	}
	if r.Salary < 0 {
		return &ValidationError{Field: "salary", Reason: "must be non-negative"}
	}
	if r.RequiredIncome < 0 {
		return &ValidationError{Field: "required_income", Reason: "must be non-negative"}
	}

	if r.DivPreference < 0 {
		return &ValidationError{Field: "div_preference", Reason: "must be non-negative"}
	}
	if r.CAGRPreference < 0 {
		return &ValidationError{Field: "cagr_preference", Reason: "must be non-negative"}
	}
	if r.YieldPreference < 0 {
		return &ValidationError{Field: "yield_preference", Reason: "must be non-negative"}
	}

	if r.RedistributionThreshold < 0 {
		return &ValidationError{Field: "redistribution_threshold", Reason: "must be non-negative"}
	}

	if !r.FilingStatus.Valid() {
		return &ValidationError{Field: "filing_status", Reason: fmt.Sprintf("unrecognized value %q", r.FilingStatus)}
	}

	columns := []struct {
		name   string
		length int
	}{
		{"columns.div_growth_rates", len(r.Columns.DivGrowthRates)},
		{"columns.cagr_rates", len(r.Columns.CAGRRates)},
		{"columns.yields", len(r.Columns.Yields)},
		{"columns.expense_ratios", len(r.Columns.ExpenseRatios)},
		{"columns.sector", len(r.Columns.Sector)},
		{"columns.qualified", len(r.Columns.Qualified)},
	}
	for _, col := range columns {
		if col.length != r.Dimension {
			return &ValidationError{Field: col.name, Reason: fmt.Sprintf("length %d does not match dimension %d", col.length, r.Dimension)}
		}
	}

	return nil
}
