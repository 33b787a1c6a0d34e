package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/source"
)

// Analyzer produces the analytics result for a filtered snapshot.
type Analyzer interface {
	Analyze(ctx context.Context, f core.Filter) (core.AnalyticsResult, error)
}

// DigestPublisher delivers computed digests.
type DigestPublisher interface {
	PublishDigest(ctx context.Context, msg *amqp.DigestMessage) error
}

// DigestWorker recomputes a user's forecast and recommendations when their
// transactions change, and periodically for every user.
type DigestWorker struct {
	analyzer    Analyzer
	users       source.UserLister
	publisher   DigestPublisher
	concurrency int
	metrics     *metrics.Recorder
}

// BatchResult summarizes one periodic run.
type BatchResult struct {
	Users     int
	Published int
	Failed    int
}

func NewDigestWorker(analyzer Analyzer, users source.UserLister, publisher DigestPublisher, concurrency int, recorder *metrics.Recorder) *DigestWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DigestWorker{
		analyzer:    analyzer,
		users:       users,
		publisher:   publisher,
		concurrency: concurrency,
		metrics:     recorder,
	}
}

// HandleChange is the consumer callback for TransactionsChanged messages.
// Returning an error requeues the message.
func (w *DigestWorker) HandleChange(ctx context.Context, msg *amqp.TransactionsChangedMessage) error {
	slog.InfoContext(ctx, "Processing transactions changed message",
		"component", "worker",
		"message_id", msg.ID,
		"user_id", msg.UserID,
		"reason", msg.Reason)

	if msg.UserID <= 0 {
		slog.WarnContext(ctx, "Ignoring message without user", "component", "worker", "message_id", msg.ID)
		return nil
	}
	return w.digestUser(ctx, msg.UserID)
}

func (w *DigestWorker) digestUser(ctx context.Context, userID int64) error {
	res, err := w.analyzer.Analyze(ctx, core.Filter{UserID: userID})
	if err != nil {
		return fmt.Errorf("analyze user %d: %w", userID, err)
	}
	err = w.publisher.PublishDigest(ctx, amqp.NewDigestMessage(userID, res))
	if w.metrics != nil {
		w.metrics.RecordDigest(err)
	}
	if err != nil {
		return fmt.Errorf("publish digest for user %d: %w", userID, err)
	}
	return nil
}

// RunBatch digests every user with bounded concurrency. Per-user failures
// are logged and counted; only listing the users can fail the batch.
func (w *DigestWorker) RunBatch(ctx context.Context) (BatchResult, error) {
	users, err := w.users.ListUsers(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list users: %w", err)
	}

	var published, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, userID := range users {
		g.Go(func() error {
			if err := w.digestUser(gctx, userID); err != nil {
				failed.Add(1)
				slog.ErrorContext(gctx, "Digest failed", "component", "worker", "user_id", userID, "error", err)
				return nil
			}
			published.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := BatchResult{Users: len(users), Published: int(published.Load()), Failed: int(failed.Load())}
	slog.InfoContext(ctx, "Digest batch finished",
		"component", "worker",
		"users", res.Users,
		"published", res.Published,
		"failed", res.Failed)
	return res, ctx.Err()
}

// Run triggers RunBatch every interval until ctx is done.
func (w *DigestWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunBatch(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Periodic digest failed", "component", "worker", "error", err)
			}
		}
	}
}
