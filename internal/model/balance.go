package model

import "github.com/shopspring/decimal"

// Balance sums transaction values by type.
type Balance struct {
	Income  decimal.Decimal `json:"income"`
	Outcome decimal.Decimal `json:"outcome"`
	Total   decimal.Decimal `json:"total"`
	// Skipped counts transactions whose value or type could not be summed.
	Skipped int `json:"-"`
}

// ComputeBalance returns income, outcome and total (income - outcome) over txns.
// Values that are not decimals and types other than income/outcome are skipped.
func ComputeBalance(txns []Transaction) Balance {
	var b Balance
	for _, t := range txns {
		v, err := decimal.NewFromString(t.Value)
		if err != nil || !t.Type.Valid() {
			b.Skipped++
			continue
		}
		switch t.Type {
		case TypeIncome:
			b.Income = b.Income.Add(v)
		case TypeOutcome:
			b.Outcome = b.Outcome.Add(v)
		}
	}
	b.Total = b.Income.Sub(b.Outcome)
	return b
}
