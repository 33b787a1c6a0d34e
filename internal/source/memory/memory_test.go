package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/source"
)

func txn(user int64, y, m, d int, amount string, kind core.Kind) core.Transaction {
	return core.Transaction{
		UserID: user,
		Date:   core.NewDate(y, m, d),
		Amount: decimal.RequireFromString(amount),
		Kind:   kind,
	}
}

func TestStore_AddAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	ids, err := s.AddTransactions(ctx, []core.Transaction{
		txn(1, 2025, 8, 1, "10", core.Expense),
		txn(1, 2025, 7, 1, "20", core.Income),
		txn(2, 2025, 7, 1, "30", core.Expense),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	got, err := s.ListTransactions(ctx, core.Filter{UserID: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID, "sorted by date")

	got, err = s.ListTransactions(ctx, core.Filter{UserID: 1, Kind: core.Expense})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_AddRejectsInvalidBatch(t *testing.T) {
	s := New()
	_, err := s.AddTransactions(context.Background(), []core.Transaction{
		txn(1, 2025, 8, 1, "10", core.Expense),
		txn(1, 2025, 8, 1, "0", core.Expense),
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	got, _ := s.ListTransactions(context.Background(), core.Filter{})
	assert.Empty(t, got)
}

func TestStore_Delete(t *testing.T) {
	s := New()
	ctx := context.Background()
	ids, err := s.AddTransactions(ctx, []core.Transaction{
		txn(1, 2025, 7, 1, "10", core.Expense),
		txn(1, 2025, 7, 2, "10", core.Expense),
		txn(1, 2024, 7, 2, "10", core.Expense),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteTransaction(ctx, 2, ids[0]), source.ErrNotFound)
	require.NoError(t, s.DeleteTransaction(ctx, 1, ids[0]))

	n, err := s.DeleteByFilter(ctx, core.Filter{UserID: 1, Year: 2025, Month: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.DeleteByFilter(ctx, core.Filter{})
	assert.Error(t, err)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, users)
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	csv := "date,amount,type,category,description\n2025-07-01,100,expense,Food,\nbad,1,expense,,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, SeedFile), []byte(csv), 0644))

	s, err := NewFromDir(context.Background(), dir, 7)
	require.NoError(t, err)
	got, err := s.ListTransactions(context.Background(), core.Filter{UserID: 7})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	empty, err := NewFromDir(context.Background(), t.TempDir(), 7)
	require.NoError(t, err)
	users, _ := empty.ListUsers(context.Background())
	assert.Empty(t, users)
}

func TestStore_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AddTransactions(ctx, []core.Transaction{txn(int64(i%3+1), 2025, 1, 1, "1", core.Expense)})
			assert.NoError(t, err)
			_, err = s.ListTransactions(ctx, core.Filter{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := s.ListTransactions(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
