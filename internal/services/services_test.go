package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/source"
	"fintrack/internal/source/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.TransactionsChangedMessage
	err  error
}

func (p *recordingPublisher) PublishTransactionsChanged(_ context.Context, msg *amqp.TransactionsChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) reasons() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Reason
	}
	return out
}

func expense(user int64, y, m, d int, amount, category string) core.Transaction {
	return core.Transaction{
		UserID:   user,
		Date:     core.NewDate(y, m, d),
		Amount:   decimal.RequireFromString(amount),
		Kind:     core.Expense,
		Category: category,
	}
}

func TestTransactionService_CreateTransaction(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(memory.New(), pub, nil)
	ctx := context.Background()

	id, err := svc.CreateTransaction(ctx, expense(1, 2025, 7, 1, "10", "Food"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, []string{amqp.ReasonCreated}, pub.reasons())

	_, err = svc.CreateTransaction(ctx, expense(1, 2025, 7, 1, "0", "Food"))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Len(t, pub.reasons(), 1, "nothing published for rejected input")
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewTransactionService(memory.New(), pub, nil)

	_, err := svc.CreateTransaction(context.Background(), expense(1, 2025, 7, 1, "10", "Food"))
	assert.NoError(t, err)
}

func TestTransactionService_NilPublisher(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, nil)
	_, err := svc.CreateTransaction(context.Background(), expense(1, 2025, 7, 1, "10", "Food"))
	assert.NoError(t, err)
}

func TestTransactionService_ImportAndExport(t *testing.T) {
	pub := &recordingPublisher{}
	rec := metrics.New()
	store := memory.New()
	svc := NewTransactionService(store, pub, rec)
	ctx := context.Background()

	csv := strings.Join([]string{
		"date,amount,type,category,description",
		"2025-07-01,3000,income,Salary,July",
		"2025-07-02,45.50,expense,Food,",
		"2025-07-03,abc,expense,Food,",
	}, "\n")

	summary, err := svc.Import(ctx, 9, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Imported: 2, Skipped: 1}, summary)
	assert.Equal(t, []string{amqp.ReasonImported}, pub.reasons())

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, 9, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2025-07-02"), "newest first: %s", lines[1])

	_, err = svc.Import(ctx, 9, strings.NewReader("date,amount\n"))
	assert.Error(t, err)
}

func TestTransactionService_Deletes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(memory.New(), pub, nil)
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		expense(1, 2025, 7, 1, "10", "Food"),
		expense(1, 2025, 7, 2, "10", "Food"),
		expense(1, 2025, 8, 2, "10", "Food"),
		expense(1, 2024, 8, 2, "10", "Food"),
	} {
		_, err := svc.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	n, err := svc.DeleteMonth(ctx, 1, 2025, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.DeleteYear(ctx, 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.DeleteMonth(ctx, 1, 2025, 13)
	assert.Error(t, err)

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, 1, 999), source.ErrNotFound)

	remaining, err := svc.ListTransactions(ctx, core.Filter{UserID: 1})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.NoError(t, svc.DeleteTransaction(ctx, 1, remaining[0].ID))

	// 4 creates + 3 deletes
	assert.Len(t, pub.reasons(), 7)
}

func TestAnalyticsService(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	_, err := store.AddTransactions(ctx, []core.Transaction{
		{UserID: 1, Date: core.NewDate(2025, 7, 1), Amount: decimal.RequireFromString("3000"), Kind: core.Income},
		expense(1, 2025, 7, 4, "300", "food"),
		expense(1, 2025, 8, 3, "600", "rent"),
		expense(2, 2025, 8, 3, "5", "other user"),
	})
	require.NoError(t, err)

	svc := NewAnalyticsService(store, analytics.NewAnalyzer(analytics.DefaultThresholds()), metrics.New())
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	res, err := svc.Analyze(ctx, core.Filter{UserID: 1})
	require.NoError(t, err)
	require.Len(t, res.Aggregates, 2)
	assert.True(t, decimal.RequireFromString("900").Equal(res.Forecast.PredictedExpense))

	sum, err := svc.Summary(ctx, core.Filter{UserID: 1, Year: 2025, Month: 8})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-600").Equal(sum.Balance))

	breakdown, err := svc.CategoryBreakdown(ctx, core.Filter{UserID: 1})
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, "Rent", breakdown[0].Name)

	year, points, err := svc.MonthlyTrend(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Len(t, points, 12)

	years, err := svc.AvailableYears(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2026}, years)

	_, err = svc.Analyze(ctx, core.Filter{UserID: 1, Month: 13})
	assert.Error(t, err)
}
