package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/source"
)

// AnalyticsService loads snapshots from a reader and runs the analytics
// pipeline over them.
type AnalyticsService struct {
	reader   source.TransactionReader
	analyzer *analytics.Analyzer
	metrics  *metrics.Recorder
	now      func() time.Time
}

func NewAnalyticsService(reader source.TransactionReader, analyzer *analytics.Analyzer, recorder *metrics.Recorder) *AnalyticsService {
	if analyzer == nil {
		analyzer = analytics.NewAnalyzer(analytics.DefaultThresholds())
	}
	return &AnalyticsService{
		reader:   reader,
		analyzer: analyzer,
		metrics:  recorder,
		now:      time.Now,
	}
}

func (s *AnalyticsService) snapshot(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	txs, err := s.reader.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

// Analyze runs aggregation, forecast and recommendations for the filter.
func (s *AnalyticsService) Analyze(ctx context.Context, f core.Filter) (core.AnalyticsResult, error) {
	txs, err := s.snapshot(ctx, f)
	if err != nil {
		return core.AnalyticsResult{}, err
	}

	start := time.Now()
	res := s.analyzer.Analyze(txs)
	if s.metrics != nil {
		s.metrics.RecordAnalysis(res, time.Since(start))
	}
	return res, nil
}

func (s *AnalyticsService) Summary(ctx context.Context, f core.Filter) (core.Summary, error) {
	txs, err := s.snapshot(ctx, f)
	if err != nil {
		return core.Summary{}, err
	}
	return analytics.Summarize(txs), nil
}

func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, f core.Filter) ([]core.CategoryAmount, error) {
	txs, err := s.snapshot(ctx, f)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryBreakdown(txs), nil
}

// AvailableYears lists the user's years with data, or the current year when
// there is none.
func (s *AnalyticsService) AvailableYears(ctx context.Context, userID int64) ([]int, error) {
	txs, err := s.snapshot(ctx, core.Filter{UserID: userID})
	if err != nil {
		return nil, err
	}
	years := analytics.AvailableYears(txs)
	if len(years) == 0 {
		years = []int{s.now().Year()}
	}
	return years, nil
}

// MonthlyTrend returns twelve points for year. A zero year selects the
// latest year with data. The year actually used is returned.
func (s *AnalyticsService) MonthlyTrend(ctx context.Context, userID int64, year int) (int, []core.MonthPoint, error) {
	if year == 0 {
		years, err := s.AvailableYears(ctx, userID)
		if err != nil {
			return 0, nil, err
		}
		year = years[len(years)-1]
	}
	txs, err := s.snapshot(ctx, core.Filter{UserID: userID, Year: year})
	if err != nil {
		return 0, nil, err
	}
	return year, analytics.YearTrend(analytics.Aggregate(txs), year), nil
}
