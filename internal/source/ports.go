// Package source defines the ports transaction backends implement.
package source

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	// ErrNotFound is returned when a transaction does not exist for the user.
	ErrNotFound = errors.New("transaction not found")
	// ErrReadOnly is returned by backends that cannot be written to.
	ErrReadOnly = errors.New("backend is read-only")
)

// Ports for outbound adapters.
type (
	TransactionReader interface {
		// ListTransactions returns the transactions matching the filter in
		// storage order.
		ListTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		// AddTransactions stores the transactions and returns their ids in
		// input order.
		AddTransactions(ctx context.Context, txs []core.Transaction) ([]int64, error)
	}

	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, userID, id int64) error
		// DeleteByFilter removes every match and returns how many were removed.
		// The filter must carry a user id.
		DeleteByFilter(ctx context.Context, f core.Filter) (int64, error)
	}

	// UserLister enumerates the users that own at least one transaction.
	UserLister interface {
		ListUsers(ctx context.Context) ([]int64, error)
	}

	// Store is the full read/write surface.
	Store interface {
		TransactionReader
		TransactionWriter
		TransactionDeleter
		UserLister
	}
)
