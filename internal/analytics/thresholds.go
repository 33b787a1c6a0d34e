package analytics

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Thresholds drive the recommendation rules. Rates and shares are fractions
// (0.1 means 10%).
type Thresholds struct {
	// SavingsRate is the minimum (income-expense)/income of the latest month.
	SavingsRate decimal.Decimal
	// CategoryShare is the largest fraction of a month's expense one category
	// may take before it is flagged.
	CategoryShare decimal.Decimal
	// TrendRise is the margin by which the forecast must exceed the latest
	// month's expense to be reported as a rising trend.
	TrendRise decimal.Decimal
	// Spike is the margin by which the latest month must exceed the average of
	// the previous months.
	Spike decimal.Decimal
	// SavingsTarget is the share of the latest income suggested as savings.
	SavingsTarget decimal.Decimal
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SavingsRate:   decimal.RequireFromString("0.10"),
		CategoryShare: decimal.RequireFromString("0.40"),
		TrendRise:     decimal.RequireFromString("0.10"),
		Spike:         decimal.RequireFromString("0.20"),
		SavingsTarget: decimal.RequireFromString("0.20"),
	}
}

func (t Thresholds) Validate() error {
	var errs []string
	unit := func(name string, v decimal.Decimal) {
		if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1, got %s", name, v))
		}
	}
	margin := func(name string, v decimal.Decimal) {
		if v.IsNegative() {
			errs = append(errs, fmt.Sprintf("%s must not be negative, got %s", name, v))
		}
	}
	unit("savings rate threshold", t.SavingsRate)
	unit("category share threshold", t.CategoryShare)
	unit("savings target rate", t.SavingsTarget)
	margin("trend rise margin", t.TrendRise)
	margin("spike margin", t.Spike)

	if len(errs) > 0 {
		return fmt.Errorf("invalid thresholds: %s", strings.Join(errs, "; "))
	}
	return nil
}
