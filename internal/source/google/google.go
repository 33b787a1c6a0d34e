package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/source"
)

// valuesGetter reads a cell range. It is satisfied by the Sheets API and by
// test fakes.
type valuesGetter interface {
	GetValues(ctx context.Context, rng string) ([][]interface{}, error)
}

type sheetsAPI struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (a sheetsAPI) GetValues(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(a.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// Options configure the spreadsheet source.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
	// DefaultUserID owns rows without a user_id column value.
	DefaultUserID int64
	CacheTTL      time.Duration
	CacheSize     int
}

// Client is a read-only transaction source backed by a spreadsheet. Parsed
// rows are cached for CacheTTL.
type Client struct {
	values      valuesGetter
	sheetName   string
	defaultUser int64
	rows        *cache.LRUCache[sheetSnapshot]
}

type sheetSnapshot struct {
	txs     []core.Transaction
	skipped int
}

var _ source.Store = (*Client)(nil)

// New creates a client using service account credentials.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(sheetsAPI{svc: svc, spreadsheetID: opts.SpreadsheetID}, opts), nil
}

func newClient(values valuesGetter, opts Options) *Client {
	if opts.SheetName == "" {
		opts.SheetName = "Transactions"
	}
	if opts.DefaultUserID == 0 {
		opts.DefaultUserID = 1
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Client{
		values:      values,
		sheetName:   opts.SheetName,
		defaultUser: opts.DefaultUserID,
		rows:        cache.NewLRUCache[sheetSnapshot](max(opts.CacheSize, 1), opts.CacheTTL),
	}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "component", "sheets", "scope", gsheet.SpreadsheetsReadonlyScope)
	return svc, nil
}

// CleanExpired lets a cache.Manager drop stale snapshots.
func (c *Client) CleanExpired() int {
	return c.rows.CleanExpired()
}

// Invalidate forces the next read to hit the spreadsheet.
func (c *Client) Invalidate() {
	c.rows.Purge()
}

func (c *Client) snapshot(ctx context.Context) (sheetSnapshot, error) {
	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	if snap, ok := c.rows.Get(rng); ok {
		return snap, nil
	}

	values, err := c.values.GetValues(ctx, rng)
	if err != nil {
		return sheetSnapshot{}, fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}
	txs, skipped, err := parseRows(values, c.defaultUser)
	if err != nil {
		return sheetSnapshot{}, err
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped invalid spreadsheet rows", "component", "sheets", "sheet", c.sheetName, "skipped", skipped)
	}

	snap := sheetSnapshot{txs: txs, skipped: skipped}
	c.rows.Set(rng, snap)
	return snap, nil
}

func (c *Client) ListTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(snap.txs))
	for _, t := range snap.txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]int64, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	users := []int64{}
	for _, t := range snap.txs {
		if !slices.Contains(users, t.UserID) {
			users = append(users, t.UserID)
		}
	}
	slices.Sort(users)
	return users, nil
}

func (c *Client) AddTransactions(context.Context, []core.Transaction) ([]int64, error) {
	return nil, source.ErrReadOnly
}

func (c *Client) DeleteTransaction(context.Context, int64, int64) error {
	return source.ErrReadOnly
}

func (c *Client) DeleteByFilter(context.Context, core.Filter) (int64, error) {
	return 0, source.ErrReadOnly
}
