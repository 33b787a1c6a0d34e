package http

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type recommendationsResponse struct {
	Recommendations []core.Recommendation `json:"recommendations"`
	Prediction      decimal.Decimal       `json:"next_month_expense_prediction"`
	Method          core.ForecastMethod   `json:"method"`
}

// userFilter parses the query filter and scopes it to the caller.
func userFilter(r *http.Request) (core.Filter, error) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		return core.Filter{}, fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	f.UserID = userID(r.Context())
	return f, nil
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	f, err := userFilter(r)
	if err != nil {
		writeError(w, r, err, log.OpAnalyze)
		return
	}
	f.Kind = ""

	res, err := s.analytics.Analyze(r.Context(), f)
	if err != nil {
		writeError(w, r, err, log.OpAnalyze)
		return
	}
	NewJSONResponse().Data(res).Write(w)
}

// handleRecommendations always looks at the caller's full history.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	res, err := s.analytics.Analyze(r.Context(), core.Filter{UserID: userID(r.Context())})
	if err != nil {
		writeError(w, r, err, log.OpAnalyze)
		return
	}
	NewJSONResponse().Data(recommendationsResponse{
		Recommendations: res.Recommendations,
		Prediction:      res.Forecast.PredictedExpense,
		Method:          res.Forecast.Method,
	}).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := userFilter(r)
	if err != nil {
		writeError(w, r, err, log.OpRead)
		return
	}
	sum, err := s.analytics.Summary(r.Context(), f)
	if err != nil {
		writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Data(sum).Write(w)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	f, err := userFilter(r)
	if err != nil {
		writeError(w, r, err, log.OpRead)
		return
	}
	f.Kind = ""

	rows, err := s.analytics.CategoryBreakdown(r.Context(), f)
	if err != nil {
		writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Data(rows).Write(w)
}

func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	year, err := optionalInt(r.URL.Query(), "year")
	if err != nil || year < 0 {
		BadRequestError("invalid year").Write(w)
		return
	}
	_, points, err := s.analytics.MonthlyTrend(r.Context(), userID(r.Context()), year)
	if err != nil {
		writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Data(points).Write(w)
}

func (s *Server) handleAvailableYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.analytics.AvailableYears(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Data(years).Write(w)
}
