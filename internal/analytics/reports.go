package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Summarize totals income and expense over the whole snapshot.
func Summarize(txs []core.Transaction) core.Summary {
	s := core.Summary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range txs {
		switch t.Kind {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// CategoryBreakdown sums expenses per normalized category, largest first.
func CategoryBreakdown(txs []core.Transaction) []core.CategoryAmount {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Kind != core.Expense {
			continue
		}
		cat := NormalizeCategory(t.Category)
		totals[cat] = totals[cat].Add(t.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		if amount.IsPositive() {
			out = append(out, core.CategoryAmount{Name: name, Amount: amount})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// YearTrend lays the aggregates of one year over all twelve months, filling
// months without transactions with zeros. It is meant for charts; Aggregate
// itself never synthesizes months.
func YearTrend(aggs []core.MonthlyAggregate, year int) []core.MonthPoint {
	points := make([]core.MonthPoint, 12)
	for i := range points {
		points[i] = core.MonthPoint{
			Period:  core.Period{Year: year, Month: time.Month(i + 1)},
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		}
	}
	for _, agg := range aggs {
		if agg.Period.Year != year {
			continue
		}
		p := &points[agg.Period.Month-1]
		p.Income = agg.TotalIncome
		p.Expense = agg.TotalExpense
	}
	return points
}

// AvailableYears lists the distinct years present, ascending.
func AvailableYears(txs []core.Transaction) []int {
	seen := make(map[int]struct{})
	for _, t := range txs {
		seen[t.Date.Year()] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
