package memory

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/csvio"
	"fintrack/internal/source"
)

// SeedFile is looked up in the data directory by NewFromDir.
const SeedFile = "seed_transactions.csv"

// Store keeps transactions in process memory.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
}

var _ source.Store = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1}
}

// NewFromDir creates a store seeded from base/seed_transactions.csv. Each
// row of the seed is assigned to seedUser. A missing file yields an empty
// store.
func NewFromDir(ctx context.Context, base string, seedUser int64) (*Store, error) {
	s := New()
	f, err := os.Open(filepath.Join(base, SeedFile))
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := csvio.Read(f, seedUser)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddTransactions(ctx, res.Transactions); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Memory store seeded", "count", len(res.Transactions), "skipped", res.Skipped)
	return s, nil
}

// AddTransactions validates every transaction before storing any of them.
func (s *Store) AddTransactions(_ context.Context, txs []core.Transaction) ([]int64, error) {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, len(txs))
	for i, t := range txs {
		t.ID = s.nextID
		s.nextID++
		s.items = append(s.items, t)
		ids[i] = t.ID
	}
	return ids, nil
}

// ListTransactions returns copies ordered by date, then id.
func (s *Store) ListTransactions(_ context.Context, f core.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if t.ID == id && t.UserID == userID {
			s.items = slices.Delete(s.items, i, i+1)
			return nil
		}
	}
	return source.ErrNotFound
}

func (s *Store) DeleteByFilter(_ context.Context, f core.Filter) (int64, error) {
	if f.UserID == 0 {
		return 0, errors.New("delete by filter: user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.items)
	s.items = slices.DeleteFunc(s.items, f.Match)
	return int64(before - len(s.items)), nil
}

func (s *Store) ListUsers(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	seen := make(map[int64]struct{})
	for _, t := range s.items {
		seen[t.UserID] = struct{}{}
	}
	s.mu.Unlock()

	users := make([]int64, 0, len(seen))
	for id := range seen {
		users = append(users, id)
	}
	slices.Sort(users)
	return users, nil
}
