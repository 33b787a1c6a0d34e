package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/csvio"
	"fintrack/internal/metrics"
	"fintrack/internal/source"
)

// ChangePublisher announces transaction changes to downstream consumers.
type ChangePublisher interface {
	PublishTransactionsChanged(ctx context.Context, msg *amqp.TransactionsChangedMessage) error
}

// ImportSummary reports the outcome of a CSV import.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// TransactionService orchestrates writes across the store and AMQP. A nil
// publisher or recorder disables that concern.
type TransactionService struct {
	store     source.Store
	publisher ChangePublisher
	metrics   *metrics.Recorder
}

func NewTransactionService(store source.Store, publisher ChangePublisher, recorder *metrics.Recorder) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		metrics:   recorder,
	}
}

// CreateTransaction validates and stores one transaction and returns its id.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	ids, err := s.store.AddTransactions(ctx, []core.Transaction{t})
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}
	if len(ids) != 1 {
		return 0, errors.New("save transaction: store returned no id")
	}

	s.publish(ctx, t.UserID, amqp.ReasonCreated, 1)
	return ids[0], nil
}

// Import reads a CSV stream and stores its valid rows for userID.
func (s *TransactionService) Import(ctx context.Context, userID int64, r io.Reader) (ImportSummary, error) {
	res, err := csvio.Read(r, userID)
	if err != nil {
		return ImportSummary{}, err
	}
	if len(res.Transactions) > 0 {
		if _, err := s.store.AddTransactions(ctx, res.Transactions); err != nil {
			return ImportSummary{}, fmt.Errorf("save imported transactions: %w", err)
		}
	}

	summary := ImportSummary{Imported: len(res.Transactions), Skipped: res.Skipped}
	if s.metrics != nil {
		s.metrics.RecordImport(summary.Imported, summary.Skipped)
	}
	slog.InfoContext(ctx, "Transactions imported", "component", "import", "user_id", userID, "count", summary.Imported, "skipped", summary.Skipped)

	if summary.Imported > 0 {
		s.publish(ctx, userID, amqp.ReasonImported, summary.Imported)
	}
	return summary, nil
}

// ListTransactions returns the user's matching transactions, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
	return txs, nil
}

// Export writes the user's transactions as CSV, newest first.
func (s *TransactionService) Export(ctx context.Context, userID int64, w io.Writer) error {
	txs, err := s.ListTransactions(ctx, core.Filter{UserID: userID})
	if err != nil {
		return err
	}
	return csvio.Write(w, txs)
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, userID, amqp.ReasonDeleted, 1)
	return nil
}

// DeleteMonth removes every transaction of the user in the given month.
func (s *TransactionService) DeleteMonth(ctx context.Context, userID int64, year, month int) (int64, error) {
	if year < 1 || month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid month %d-%d", year, month)
	}
	return s.deleteByFilter(ctx, core.Filter{UserID: userID, Year: year, Month: month})
}

// DeleteYear removes every transaction of the user in the given year.
func (s *TransactionService) DeleteYear(ctx context.Context, userID int64, year int) (int64, error) {
	if year < 1 {
		return 0, fmt.Errorf("invalid year %d", year)
	}
	return s.deleteByFilter(ctx, core.Filter{UserID: userID, Year: year})
}

func (s *TransactionService) deleteByFilter(ctx context.Context, f core.Filter) (int64, error) {
	n, err := s.store.DeleteByFilter(ctx, f)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish(ctx, f.UserID, amqp.ReasonDeleted, int(n))
	}
	return n, nil
}

// publish never fails the caller: the write already happened.
func (s *TransactionService) publish(ctx context.Context, userID int64, reason string, count int) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping change message", "user_id", userID)
		return
	}
	msg := amqp.NewTransactionsChangedMessage(userID, reason, count)
	if err := s.publisher.PublishTransactionsChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transactions changed message",
			"user_id", userID, "reason", reason, "error", err)
	}
}

// IsReadOnly reports whether err means the backend rejects writes.
func IsReadOnly(err error) bool {
	return errors.Is(err, source.ErrReadOnly)
}
