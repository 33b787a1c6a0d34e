package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Aggregate groups transactions by calendar month. Only months with at least
// one transaction appear and the result is in chronological order.
func Aggregate(txs []core.Transaction) []core.MonthlyAggregate {
	byPeriod := make(map[core.Period]*core.MonthlyAggregate)
	for _, t := range txs {
		p := core.PeriodOf(t.Date)
		agg, ok := byPeriod[p]
		if !ok {
			agg = &core.MonthlyAggregate{
				Period:         p,
				TotalIncome:    decimal.Zero,
				TotalExpense:   decimal.Zero,
				CategoryTotals: make(map[string]decimal.Decimal),
			}
			byPeriod[p] = agg
		}

		switch t.Kind {
		case core.Income:
			agg.TotalIncome = agg.TotalIncome.Add(t.Amount)
		case core.Expense:
			agg.TotalExpense = agg.TotalExpense.Add(t.Amount)
			cat := NormalizeCategory(t.Category)
			agg.CategoryTotals[cat] = agg.CategoryTotals[cat].Add(t.Amount)
		}
	}

	out := make([]core.MonthlyAggregate, 0, len(byPeriod))
	for _, agg := range byPeriod {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period.Before(out[j].Period)
	})
	return out
}

// ExpenseSeries extracts the monthly expense totals in the order given.
func ExpenseSeries(aggs []core.MonthlyAggregate) []decimal.Decimal {
	series := make([]decimal.Decimal, len(aggs))
	for i, agg := range aggs {
		series[i] = agg.TotalExpense
	}
	return series
}
