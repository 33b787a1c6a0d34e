package analytics

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// minTrendPoints is the number of months needed before a line is fitted.
const minTrendPoints = 2

// ForecastNext predicts the expense of the month following the series.
//
// With fewer than two points there is no trend to fit: the single observed
// value (or zero) is reported as insufficient_data. Otherwise an ordinary
// least-squares line y = a + b*x is fitted over x = 0..n-1 and evaluated at
// x = n. Predictions are clamped at zero and rounded to cents.
func ForecastNext(series []decimal.Decimal) core.Forecast {
	n := len(series)
	if n < minTrendPoints {
		predicted := decimal.Zero
		if n == 1 {
			predicted = series[0]
		}
		return core.Forecast{
			PredictedExpense: predicted,
			Method:           core.InsufficientData,
			BasedOnPeriods:   n,
		}
	}

	intercept, slope := fitLine(series)
	predicted := intercept.Add(slope.Mul(decimal.NewFromInt(int64(n))))
	if predicted.IsNegative() {
		predicted = decimal.Zero
	}

	return core.Forecast{
		PredictedExpense: predicted.Round(2),
		Method:           core.LinearTrend,
		BasedOnPeriods:   n,
	}
}

// fitLine returns the closed-form least-squares intercept and slope for ys
// indexed by position. len(ys) must be at least 2 so var(x) is never zero.
func fitLine(ys []decimal.Decimal) (intercept, slope decimal.Decimal) {
	n := decimal.NewFromInt(int64(len(ys)))

	sumX, sumY := decimal.Zero, decimal.Zero
	for i, y := range ys {
		sumX = sumX.Add(decimal.NewFromInt(int64(i)))
		sumY = sumY.Add(y)
	}
	meanX := sumX.Div(n)
	meanY := sumY.Div(n)

	cov, variance := decimal.Zero, decimal.Zero
	for i, y := range ys {
		dx := decimal.NewFromInt(int64(i)).Sub(meanX)
		cov = cov.Add(dx.Mul(y.Sub(meanY)))
		variance = variance.Add(dx.Mul(dx))
	}

	slope = cov.Div(variance)
	intercept = meanY.Sub(slope.Mul(meanX))
	return intercept, slope
}
