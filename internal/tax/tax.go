// Package tax computes after-tax income from gross qualified and ordinary
// income using static per-filing-status bracket tables.
package tax

import "errors"

// ErrInvalidFilingStatus indicates a filing status outside the recognized set.
var ErrInvalidFilingStatus = errors.New("invalid filing status")

// AfterTaxIncome returns the combined post-tax amount of the given gross
// qualified and ordinary incomes for one filing status. Ordinary income is
// taxed with standard progressive marginal computation. Qualified income is
// taxed at the single preferential rate of the bracket the total income
// (qualified stacked on top of ordinary) falls into.
func AfterTaxIncome(qualified, ordinary float64, status FilingStatus) (float64, error) {
	table, err := Brackets(status)
	if err != nil {
		return 0, err
	}

	ordinaryTax := marginalTax(ordinary, table.Ordinary)
	qualifiedTax := qualified * qualifiedRate(qualified+ordinary, table.Qualified)

	return (ordinary - ordinaryTax) + (qualified - qualifiedTax), nil
}

// marginalTax applies progressive brackets: each slice of income between
// consecutive thresholds is taxed at that bracket's rate.
func marginalTax(income float64, brackets []Bracket) float64 {
	var tax float64
	remaining := income
	previousThreshold := 0.0

	for _, bracket := range brackets {
		span := bracket.Threshold - previousThreshold
		taxable := remaining
		if taxable > span {
			taxable = span
		}
		tax += taxable * bracket.Rate
		remaining -= taxable
		previousThreshold = bracket.Threshold
		if remaining <= 0 {
			break
		}
	}

	return tax
}

// qualifiedRate selects the preferential rate by the bracket containing the
// total income; qualified income does not straddle brackets.
func qualifiedRate(totalIncome float64, brackets []Bracket) float64 {
	for _, bracket := range brackets {
		if totalIncome <= bracket.Threshold {
			return bracket.Rate
		}
	}
	// Unreachable: every table ends with an infinite threshold.
	return brackets[len(brackets)-1].Rate
}
