package core

import "github.com/shopspring/decimal"

const (
	LinearTrend      ForecastMethod = "linear_trend"
	InsufficientData ForecastMethod = "insufficient_data"

	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

type (
	ForecastMethod string
	Severity       string

	// MonthlyAggregate holds the totals of one calendar month. CategoryTotals
	// only covers expenses.
	MonthlyAggregate struct {
		Period         Period                     `json:"period"`
		TotalIncome    decimal.Decimal            `json:"total_income"`
		TotalExpense   decimal.Decimal            `json:"total_expense"`
		CategoryTotals map[string]decimal.Decimal `json:"category_totals"`
	}

	Forecast struct {
		PredictedExpense decimal.Decimal `json:"predicted_expense"`
		Method           ForecastMethod  `json:"method"`
		BasedOnPeriods   int             `json:"based_on_periods"`
	}

	Recommendation struct {
		Text     string   `json:"text"`
		Severity Severity `json:"severity"`
		Topic    string   `json:"topic"`
	}

	// AnalyticsResult is the single value returned for an analytics request.
	AnalyticsResult struct {
		Aggregates      []MonthlyAggregate `json:"aggregates"`
		Forecast        Forecast           `json:"forecast"`
		Recommendations []Recommendation   `json:"recommendations"`
	}

	Summary struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}

	// CategoryAmount represents an amount aggregated by category name.
	CategoryAmount struct {
		Name   string          `json:"category"`
		Amount decimal.Decimal `json:"amount"`
	}

	// MonthPoint is one month of a yearly income/expense chart.
	MonthPoint struct {
		Period  Period          `json:"month"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}
)
