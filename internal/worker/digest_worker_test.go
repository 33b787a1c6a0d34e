package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

type fakeAnalyzer struct {
	failFor  map[int64]bool
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeAnalyzer) Analyze(_ context.Context, flt core.Filter) (core.AnalyticsResult, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if f.failFor[flt.UserID] {
		return core.AnalyticsResult{}, errors.New("store unavailable")
	}
	return core.AnalyticsResult{
		Forecast: core.Forecast{PredictedExpense: decimal.NewFromInt(flt.UserID), Method: core.LinearTrend, BasedOnPeriods: 2},
	}, nil
}

type fakeUsers struct {
	ids []int64
	err error
}

func (f fakeUsers) ListUsers(context.Context) ([]int64, error) { return f.ids, f.err }

type fakeDigests struct {
	mu   sync.Mutex
	msgs []*amqp.DigestMessage
	err  error
}

func (f *fakeDigests) PublishDigest(_ context.Context, msg *amqp.DigestMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestDigestWorker_HandleChange(t *testing.T) {
	pub := &fakeDigests{}
	w := NewDigestWorker(&fakeAnalyzer{}, fakeUsers{}, pub, 2, metrics.New())

	err := w.HandleChange(context.Background(), amqp.NewTransactionsChangedMessage(5, amqp.ReasonCreated, 1))
	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, int64(5), pub.msgs[0].UserID)
	assert.True(t, decimal.NewFromInt(5).Equal(pub.msgs[0].Forecast.PredictedExpense))

	// messages without a user are acknowledged and dropped
	require.NoError(t, w.HandleChange(context.Background(), &amqp.TransactionsChangedMessage{ID: "x"}))
	assert.Len(t, pub.msgs, 1)
}

func TestDigestWorker_HandleChangeErrorsRequeue(t *testing.T) {
	w := NewDigestWorker(&fakeAnalyzer{}, fakeUsers{}, &fakeDigests{err: errors.New("broker down")}, 1, nil)
	err := w.HandleChange(context.Background(), amqp.NewTransactionsChangedMessage(5, amqp.ReasonCreated, 1))
	assert.Error(t, err)
}

func TestDigestWorker_RunBatch(t *testing.T) {
	analyzer := &fakeAnalyzer{failFor: map[int64]bool{3: true}}
	pub := &fakeDigests{}
	w := NewDigestWorker(analyzer, fakeUsers{ids: []int64{1, 2, 3, 4, 5, 6, 7, 8}}, pub, 3, nil)

	res, err := w.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Users: 8, Published: 7, Failed: 1}, res)
	assert.Len(t, pub.msgs, 7)
	assert.LessOrEqual(t, analyzer.peak.Load(), int32(3), "concurrency limit respected")
}

func TestDigestWorker_RunBatchListError(t *testing.T) {
	w := NewDigestWorker(&fakeAnalyzer{}, fakeUsers{err: errors.New("db locked")}, &fakeDigests{}, 1, nil)
	_, err := w.RunBatch(context.Background())
	assert.Error(t, err)
}

func TestDigestWorker_RunStopsOnCancel(t *testing.T) {
	w := NewDigestWorker(&fakeAnalyzer{}, fakeUsers{}, &fakeDigests{}, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
