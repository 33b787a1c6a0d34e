package analytics

import "fintrack/internal/core"

// Analyzer runs the whole pipeline: aggregation, forecast, recommendations.
// It holds only immutable configuration and is safe for concurrent use.
type Analyzer struct {
	recommender *Recommender
}

func NewAnalyzer(th Thresholds) *Analyzer {
	return &Analyzer{recommender: NewRecommender(th)}
}

// Analyze never fails: an empty snapshot yields no aggregates, an
// insufficient_data forecast and the data recommendation.
func (a *Analyzer) Analyze(txs []core.Transaction) core.AnalyticsResult {
	aggs := Aggregate(txs)
	fc := ForecastNext(ExpenseSeries(aggs))
	return core.AnalyticsResult{
		Aggregates:      aggs,
		Forecast:        fc,
		Recommendations: a.recommender.Recommend(aggs, fc),
	}
}

// Analyze runs the pipeline with DefaultThresholds.
func Analyze(txs []core.Transaction) core.AnalyticsResult {
	return NewAnalyzer(DefaultThresholds()).Analyze(txs)
}
