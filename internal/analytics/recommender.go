package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Recommendation topics.
const (
	TopicSavingsRate           = "savings_rate"
	TopicCategoryConcentration = "category_concentration"
	TopicTrend                 = "trend"
	TopicData                  = "data"
	TopicSpendingSpike         = "spending_spike"
	TopicSavingsTarget         = "savings_target"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// rule inspects the history and the forecast and optionally produces one
// recommendation.
type rule func(aggs []core.MonthlyAggregate, fc core.Forecast) (core.Recommendation, bool)

// Recommender evaluates a fixed, ordered list of rules. Every rule runs; the
// output keeps rule order, which puts warnings before informational notes.
type Recommender struct {
	th    Thresholds
	rules []rule
}

func NewRecommender(th Thresholds) *Recommender {
	r := &Recommender{th: th}
	r.rules = []rule{
		r.savingsRate,
		r.categoryConcentration,
		r.risingTrend,
		r.insufficientData,
		r.spendingSpike,
		r.savingsTarget,
	}
	return r
}

// Recommend returns the recommendations for a chronological aggregate
// sequence and the forecast derived from it. The result is never nil.
func (r *Recommender) Recommend(aggs []core.MonthlyAggregate, fc core.Forecast) []core.Recommendation {
	recs := make([]core.Recommendation, 0, len(r.rules))
	for _, apply := range r.rules {
		if rec, ok := apply(aggs, fc); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

func latest(aggs []core.MonthlyAggregate) (core.MonthlyAggregate, bool) {
	if len(aggs) == 0 {
		return core.MonthlyAggregate{}, false
	}
	return aggs[len(aggs)-1], true
}

func (r *Recommender) savingsRate(aggs []core.MonthlyAggregate, _ core.Forecast) (core.Recommendation, bool) {
	last, ok := latest(aggs)
	if !ok || !last.TotalIncome.IsPositive() {
		return core.Recommendation{}, false
	}
	rate := last.TotalIncome.Sub(last.TotalExpense).Div(last.TotalIncome)
	if !rate.LessThan(r.th.SavingsRate) {
		return core.Recommendation{}, false
	}
	return core.Recommendation{
		Text: fmt.Sprintf("You saved %s%% of your income in %s. Aim for at least %s%% by trimming discretionary spending.",
			percent(rate), last.Period, percent(r.th.SavingsRate)),
		Severity: core.SeverityWarning,
		Topic:    TopicSavingsRate,
	}, true
}

func (r *Recommender) categoryConcentration(aggs []core.MonthlyAggregate, _ core.Forecast) (core.Recommendation, bool) {
	last, ok := latest(aggs)
	if !ok || !last.TotalExpense.IsPositive() {
		return core.Recommendation{}, false
	}

	names := make([]string, 0, len(last.CategoryTotals))
	for name := range last.CategoryTotals {
		names = append(names, name)
	}
	sort.Strings(names)

	limit := last.TotalExpense.Mul(r.th.CategoryShare)
	top, topAmount := "", decimal.Zero
	for _, name := range names {
		amount := last.CategoryTotals[name]
		if amount.GreaterThan(limit) && amount.GreaterThan(topAmount) {
			top, topAmount = name, amount
		}
	}
	if top == "" {
		return core.Recommendation{}, false
	}

	share := topAmount.Div(last.TotalExpense)
	return core.Recommendation{
		Text: fmt.Sprintf("%q took %s%% of your spending in %s (%s). Consider setting a monthly cap or finding cheaper alternatives.",
			top, percent(share), last.Period, core.FormatAmount(topAmount)),
		Severity: core.SeverityWarning,
		Topic:    TopicCategoryConcentration,
	}, true
}

func (r *Recommender) risingTrend(aggs []core.MonthlyAggregate, fc core.Forecast) (core.Recommendation, bool) {
	last, ok := latest(aggs)
	if !ok || fc.Method != core.LinearTrend {
		return core.Recommendation{}, false
	}
	limit := last.TotalExpense.Mul(one.Add(r.th.TrendRise))
	if !fc.PredictedExpense.GreaterThan(limit) {
		return core.Recommendation{}, false
	}
	return core.Recommendation{
		Text: fmt.Sprintf("Your expenses are trending up: next month is forecast at %s against %s in %s.",
			core.FormatAmount(fc.PredictedExpense), core.FormatAmount(last.TotalExpense), last.Period),
		Severity: core.SeverityInfo,
		Topic:    TopicTrend,
	}, true
}

func (r *Recommender) insufficientData(_ []core.MonthlyAggregate, fc core.Forecast) (core.Recommendation, bool) {
	if fc.Method != core.InsufficientData {
		return core.Recommendation{}, false
	}
	return core.Recommendation{
		Text:     fmt.Sprintf("Add at least %d months of data to get expense predictions.", minTrendPoints),
		Severity: core.SeverityInfo,
		Topic:    TopicData,
	}, true
}

func (r *Recommender) spendingSpike(aggs []core.MonthlyAggregate, _ core.Forecast) (core.Recommendation, bool) {
	if len(aggs) < 2 {
		return core.Recommendation{}, false
	}
	last := aggs[len(aggs)-1]
	previous := aggs[:len(aggs)-1]

	sum := decimal.Zero
	for _, agg := range previous {
		sum = sum.Add(agg.TotalExpense)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(previous))))
	if !last.TotalExpense.GreaterThan(avg.Mul(one.Add(r.th.Spike))) {
		return core.Recommendation{}, false
	}
	return core.Recommendation{
		Text: fmt.Sprintf("Expenses in %s (%s) exceeded your previous monthly average (%s) by more than %s%%. Review discretionary categories.",
			last.Period, core.FormatAmount(last.TotalExpense), core.FormatAmount(avg), percent(r.th.Spike)),
		Severity: core.SeverityInfo,
		Topic:    TopicSpendingSpike,
	}, true
}

func (r *Recommender) savingsTarget(aggs []core.MonthlyAggregate, fc core.Forecast) (core.Recommendation, bool) {
	last, ok := latest(aggs)
	if !ok || !last.TotalIncome.IsPositive() {
		return core.Recommendation{}, false
	}
	target := last.TotalIncome.Mul(r.th.SavingsTarget)
	return core.Recommendation{
		Text: fmt.Sprintf("Predicted next month expense: %s. Set a savings target of at least %s.",
			core.FormatAmount(fc.PredictedExpense), core.FormatAmount(target)),
		Severity: core.SeverityInfo,
		Topic:    TopicSavingsTarget,
	}, true
}

func percent(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).StringFixed(1)
}
