package google

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/source"
)

type fakeValues struct {
	mu     sync.Mutex
	values [][]interface{}
	err    error
	calls  int
	ranges []string
}

func (f *fakeValues) GetValues(_ context.Context, rng string) ([][]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ranges = append(f.ranges, rng)
	return f.values, f.err
}

func sheet() [][]interface{} {
	return [][]interface{}{
		{"Date", "Amount", "Type", "Category", "Description", "user_id"},
		{"2025-08-01", 600.0, "expense", "Rent", "August", 2.0},
		{"2025-07-01", 3000.0, "Income", "Salary", "", ""},
		{"01/07/2025", "12,50", "expense", "food", "lunch"},
		{"not a date", 10.0, "expense", "Food", ""},
		{"2025-07-05", -3.0, "expense", "Food", ""},
		{},
	}
}

func TestParseRows(t *testing.T) {
	txs, skipped, err := parseRows(sheet(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, txs, 3)

	assert.Equal(t, int64(2), txs[0].ID, "sheet row number")
	assert.Equal(t, int64(2), txs[0].UserID)
	assert.True(t, decimal.RequireFromString("600").Equal(txs[0].Amount))

	assert.Equal(t, int64(1), txs[1].UserID, "default user")
	assert.Equal(t, core.Income, txs[1].Kind)

	assert.Equal(t, core.NewDate(2025, 7, 1), txs[2].Date)
	assert.True(t, decimal.RequireFromString("12.50").Equal(txs[2].Amount))
}

func TestParseRows_MissingHeader(t *testing.T) {
	_, _, err := parseRows([][]interface{}{{"Date", "Amount"}}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing type,category,description")

	txs, skipped, err := parseRows(nil, 1)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Zero(t, skipped)
}

func TestClient_ListTransactionsCached(t *testing.T) {
	fake := &fakeValues{values: sheet()}
	c := newClient(fake, Options{SheetName: "Tx", CacheTTL: time.Hour, CacheSize: 4})
	ctx := context.Background()

	txs, err := c.ListTransactions(ctx, core.Filter{UserID: 1})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.True(t, txs[0].Date.Before(txs[1].Date) || txs[0].Date.Equal(txs[1].Date))

	_, err = c.ListTransactions(ctx, core.Filter{UserID: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls, "second read served from cache")
	assert.Equal(t, "Tx!A:F", fake.ranges[0])

	c.Invalidate()
	_, err = c.ListTransactions(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, users)
}

func TestClient_ErrorsAreNotCached(t *testing.T) {
	fake := &fakeValues{err: errors.New("quota exceeded")}
	c := newClient(fake, Options{})

	_, err := c.ListTransactions(context.Background(), core.Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	fake.err = nil
	fake.values = sheet()
	_, err = c.ListTransactions(context.Background(), core.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestClient_ReadOnly(t *testing.T) {
	c := newClient(&fakeValues{}, Options{})
	ctx := context.Background()

	_, err := c.AddTransactions(ctx, nil)
	assert.ErrorIs(t, err, source.ErrReadOnly)
	assert.ErrorIs(t, c.DeleteTransaction(ctx, 1, 1), source.ErrReadOnly)
	_, err = c.DeleteByFilter(ctx, core.Filter{UserID: 1})
	assert.ErrorIs(t, err, source.ErrReadOnly)
}

func TestNew_RequiresSpreadsheetAndCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)

	_, err = New(context.Background(), Options{SpreadsheetID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}
