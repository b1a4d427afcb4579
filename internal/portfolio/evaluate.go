package portfolio

import (
	"errors"
	"fmt"

	"github.com/iwvelando/portfolio-optimizer/internal/tax"
	"github.com/iwvelando/portfolio-optimizer/pkg/constants"
	"github.com/iwvelando/portfolio-optimizer/pkg/mathutil"
)

// ErrNumericFault indicates a NaN or infinity surfaced during evaluation.
// This should be unreachable for validated requests and is treated as a
// defect, not a normal outcome.
var ErrNumericFault = errors.New("numeric fault during evaluation")

// Violation names reported in Score.Violations.
const (
	ViolationDivGrowth       = "min_div_growth"
	ViolationCAGR            = "min_cagr"
	ViolationYield           = "min_yield"
	ViolationIncome          = "required_income"
	ViolationDiversification = "diversification"
)

// Metrics holds the portfolio-level aggregates achieved by one candidate.
// Yield is net of expense ratios. SectorHHI is the Herfindahl-Hirschman
// concentration of the allocation across sector codes, reported for
// diagnostics.
type Metrics struct {
	DivGrowth      float64 `json:"div_growth"`
	CAGR           float64 `json:"cagr"`
	Yield          float64 `json:"yield"`
	AfterTaxIncome float64 `json:"after_tax_income"`
	SectorHHI      float64 `json:"sector_hhi"`
}

// Score is the evaluator's verdict on one candidate weight vector.
// Violations maps constraint names to their violation magnitudes; satisfied
// constraints are omitted.
type Score struct {
	Feasible   bool               `json:"feasible"`
	Fitness    float64            `json:"fitness"`
	Metrics    Metrics            `json:"metrics"`
	Violations map[string]float64 `json:"violations,omitempty"`
}

// Evaluate scores a candidate weight vector against the request constraints.
// It is pure and safe for concurrent use; the only possible error is a
// numeric fault, which validated inputs should never produce.
func Evaluate(weights []float64, req *Request) (Score, error) {
	aggDivGrowth := mathutil.WeightedSum(weights, req.Columns.DivGrowthRates)
	aggCAGR := mathutil.WeightedSum(weights, req.Columns.CAGRRates)
	grossYield := mathutil.WeightedSum(weights, req.Columns.Yields)
	aggExpense := mathutil.WeightedSum(weights, req.Columns.ExpenseRatios)
	netYield := grossYield - aggExpense

	// Split dividend income into qualified and non-qualified pools. The
	// non-qualified pool is taxed together with salary as ordinary income.
	var qualifiedIncome float64
	for i, qualified := range req.Columns.Qualified {
		if qualified {
			qualifiedIncome += weights[i] * req.Columns.Yields[i] * req.InitialCapital
		}
	}
	nonQualifiedIncome := grossYield*req.InitialCapital - qualifiedIncome

	afterTaxIncome, err := tax.AfterTaxIncome(qualifiedIncome, req.Salary+nonQualifiedIncome, req.FilingStatus)
	if err != nil {
		return Score{}, err
	}

	violations := make(map[string]float64)
	record := func(name string, magnitude float64) {
		if magnitude > 0 {
			violations[name] = magnitude
		}
	}
	record(ViolationDivGrowth, req.MinDivGrowth-aggDivGrowth)
	record(ViolationCAGR, req.MinCAGR-aggCAGR)
	record(ViolationYield, req.MinYield-netYield)
	record(ViolationIncome, req.RequiredIncome-afterTaxIncome)

	// No single holding may exceed the equal-weight baseline by more than the
	// redistribution threshold.
	diversificationCap := 1.0/float64(req.Dimension) + req.RedistributionThreshold
	record(ViolationDiversification, mathutil.MaxElement(weights)-diversificationCap)

	var penalty float64
	feasible := true
	for _, v := range violations {
		penalty += v * v
		if v > constants.ConstraintTolerance {
			feasible = false
		}
	}

	fitness := req.DivPreference*aggDivGrowth +
		req.CAGRPreference*aggCAGR +
		req.YieldPreference*netYield -
		constants.PenaltyCoefficient*penalty

	if !mathutil.IsFinite(fitness) || !mathutil.IsFinite(afterTaxIncome) {
		return Score{}, fmt.Errorf("%w: fitness=%v after_tax_income=%v", ErrNumericFault, fitness, afterTaxIncome)
	}

	if len(violations) == 0 {
		violations = nil
	}

	return Score{
		Feasible: feasible,
		Fitness:  fitness,
		Metrics: Metrics{
			DivGrowth:      aggDivGrowth,
			CAGR:           aggCAGR,
			Yield:          netYield,
			AfterTaxIncome: afterTaxIncome,
			SectorHHI:      sectorHHI(weights, req.Columns.Sector),
		},
		Violations: violations,
	}, nil
}

// sectorHHI sums squared sector allocation shares. 1/numSectors means evenly
// spread, 1 means fully concentrated in one sector.
func sectorHHI(weights []float64, sectors []int) float64 {
	total := mathutil.Sum(weights)
	if total == 0 {
		return 0
	}

	allocations := make(map[int]float64)
	for i, sector := range sectors {
		allocations[sector] += weights[i]
	}

	var hhi float64
	for _, allocation := range allocations {
		share := allocation / total
		hhi += share * share
	}
	return hhi
}
