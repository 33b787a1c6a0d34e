package backend

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/source"
	"fintrack/internal/source/google"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result is a ready transaction store plus the optional change publisher.
type Result struct {
	Store source.Store
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher *amqp.Client
	ReadOnly  bool
	cleanups  []CleanupFunc
}

// Close runs every cleanup in reverse order of registration.
func (r *Result) Close() error {
	var errs []error
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if err := r.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.cleanups = nil
	return errors.Join(errs...)
}

func (r *Result) addCleanup(fn CleanupFunc) {
	r.cleanups = append(r.cleanups, fn)
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory
	DataDirectory string
	SeedUserID    int64

	// SQLite
	SQLiteDBPath string

	// Google Sheets
	Sheets          google.Options
	CleanupInterval time.Duration

	// AMQP is optional for every backend.
	AMQP amqp.Config
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
