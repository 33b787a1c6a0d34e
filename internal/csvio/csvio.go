// Package csvio reads and writes transaction CSV files with the header
// date,amount,type,category,description.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/internal/core"
)

const dateLayout = "2006-01-02"

// Header lists the required columns in the order Write emits them.
var Header = []string{"date", "amount", "type", "category", "description"}

var (
	ErrEmptyFile     = errors.New("csv file is empty")
	ErrMissingHeader = errors.New("csv must have headers: date, amount, type, category, description")
)

// ImportResult holds the valid rows of a file and the number of rows that
// were skipped because they failed to parse or validate.
type ImportResult struct {
	Transactions []core.Transaction
	Skipped      int
}

// Read parses a CSV stream for userID. Columns are matched by header name,
// case-insensitively and in any order. Invalid rows are skipped, never fatal.
func Read(r io.Reader, userID int64) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{}, ErrEmptyFile
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(head))
	for i, h := range head {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, name := range Header {
		if _, ok := cols[name]; !ok {
			return ImportResult{}, ErrMissingHeader
		}
	}

	res := ImportResult{Transactions: []core.Transaction{}}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("read csv: %w", err)
		}
		if blank(rec) {
			continue
		}

		field := func(name string) string {
			if i := cols[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		t, err := parseRow(userID, field)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Transactions = append(res.Transactions, t)
	}
	return res, nil
}

func parseRow(userID int64, field func(string) string) (core.Transaction, error) {
	date, err := time.Parse(dateLayout, field("date"))
	if err != nil {
		return core.Transaction{}, core.ErrInvalidDate
	}
	amount, err := core.ParseAmount(field("amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(field("type"))
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		UserID:      userID,
		Date:        date,
		Amount:      amount,
		Kind:        kind,
		Category:    field("category"),
		Description: field("description"),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Write emits the header followed by one row per transaction in the order
// given.
func Write(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		row := []string{
			t.Date.Format(dateLayout),
			core.FormatAmount(t.Amount),
			string(t.Kind),
			t.Category,
			t.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
