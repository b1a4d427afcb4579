package tax

import "math"

// FilingStatus selects the bracket tables used for a tax computation.
type FilingStatus string

// Recognized filing statuses. The wire representation is snake_case.
const (
	Single                  FilingStatus = "single"
	MarriedFilingJointly    FilingStatus = "married_filing_jointly"
	MarriedFilingSeparately FilingStatus = "married_filing_separately"
	HeadOfHousehold         FilingStatus = "head_of_household"
)

// Valid reports whether the status is one of the recognized values.
func (s FilingStatus) Valid() bool {
	switch s {
	case Single, MarriedFilingJointly, MarriedFilingSeparately, HeadOfHousehold:
		return true
	}
	return false
}

// Bracket is one marginal tax bracket. Income up to Threshold (cumulative
// from the previous bracket's threshold) is taxed at Rate. The final bracket
// of a table carries Threshold = +Inf.
type Bracket struct {
	Rate      float64
	Threshold float64
}

// Table pairs the ordinary-income brackets with the preferential
// qualified-dividend brackets for one filing status.
type Table struct {
	Ordinary  []Bracket
	Qualified []Bracket
}

// 2024 federal tables.
var tables = map[FilingStatus]Table{
	Single: {
		Ordinary: []Bracket{
			{Rate: 0.00, Threshold: 11600},
			{Rate: 0.12, Threshold: 47150},
			{Rate: 0.22, Threshold: 100526},
			{Rate: 0.24, Threshold: 191950},
			{Rate: 0.32, Threshold: 243725},
			{Rate: 0.35, Threshold: 609350},
			{Rate: 0.37, Threshold: math.Inf(1)},
		},
		Qualified: []Bracket{
			{Rate: 0.00, Threshold: 47025},
			{Rate: 0.15, Threshold: 518900},
			{Rate: 0.20, Threshold: math.Inf(1)},
		},
	},
	MarriedFilingJointly: {
		Ordinary: []Bracket{
			{Rate: 0.00, Threshold: 23200},
			{Rate: 0.12, Threshold: 94300},
			{Rate: 0.22, Threshold: 201050},
			{Rate: 0.24, Threshold: 383900},
			{Rate: 0.32, Threshold: 487450},
			{Rate: 0.35, Threshold: 731200},
			{Rate: 0.37, Threshold: math.Inf(1)},
		},
		Qualified: []Bracket{
			{Rate: 0.00, Threshold: 94050},
			{Rate: 0.15, Threshold: 583750},
			{Rate: 0.20, Threshold: math.Inf(1)},
		},
	},
	MarriedFilingSeparately: {
		Ordinary: []Bracket{
			{Rate: 0.00, Threshold: 11600},
			{Rate: 0.12, Threshold: 47150},
			{Rate: 0.22, Threshold: 100525},
			{Rate: 0.24, Threshold: 191950},
			{Rate: 0.32, Threshold: 243725},
			{Rate: 0.35, Threshold: 365600},
			{Rate: 0.37, Threshold: math.Inf(1)},
		},
		Qualified: []Bracket{
			{Rate: 0.00, Threshold: 47025},
			{Rate: 0.15, Threshold: 291850},
			{Rate: 0.20, Threshold: math.Inf(1)},
		},
	},
	HeadOfHousehold: {
		Ordinary: []Bracket{
			{Rate: 0.00, Threshold: 16550},
			{Rate: 0.12, Threshold: 63100},
			{Rate: 0.22, Threshold: 100500},
			{Rate: 0.24, Threshold: 191950},
			{Rate: 0.32, Threshold: 243700},
			{Rate: 0.35, Threshold: 609350},
			{Rate: 0.37, Threshold: math.Inf(1)},
		},
		Qualified: []Bracket{
			{Rate: 0.00, Threshold: 63000},
			{Rate: 0.15, Threshold: 551350},
			{Rate: 0.20, Threshold: math.Inf(1)},
		},
	},
}

// Brackets returns the immutable bracket tables for the given filing status.
func Brackets(status FilingStatus) (Table, error) {
	table, ok := tables[status]
	if !ok {
		return Table{}, ErrInvalidFilingStatus
	}
	return table, nil
}
