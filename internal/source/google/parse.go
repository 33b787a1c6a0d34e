package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006/01/02"}

var requiredColumns = []string{"date", "amount", "type", "category", "description"}

// parseRows converts a values matrix whose first row is a header into
// transactions. The row number in the sheet becomes the transaction id.
// Invalid rows are counted, not fatal.
func parseRows(values [][]interface{}, defaultUser int64) ([]core.Transaction, int, error) {
	if len(values) == 0 {
		return []core.Transaction{}, 0, nil
	}

	headers := toStrings(values[0])
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("unexpected sheet header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	userCol, hasUser := cols["user_id"]

	txs := make([]core.Transaction, 0, len(values)-1)
	skipped := 0
	for i := 1; i < len(values); i++ {
		row := values[i]
		if len(row) == 0 {
			continue
		}
		t, err := parseRow(row, cols)
		if err != nil {
			skipped++
			continue
		}
		t.ID = int64(i + 1)
		t.UserID = defaultUser
		if hasUser {
			if id, err := strconv.ParseInt(strings.TrimSpace(cellString(row, userCol)), 10, 64); err == nil && id > 0 {
				t.UserID = id
			}
		}
		txs = append(txs, t)
	}
	return txs, skipped, nil
}

func parseRow(row []interface{}, cols map[string]int) (core.Transaction, error) {
	date, err := parseDate(cellString(row, cols["date"]))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := parseAmountCell(cell(row, cols["amount"]))
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(cellString(row, cols["type"]))
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Date:        date,
		Amount:      amount,
		Kind:        kind,
		Category:    strings.TrimSpace(cellString(row, cols["category"])),
		Description: strings.TrimSpace(cellString(row, cols["description"])),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, core.ErrInvalidDate
}

// parseAmountCell accepts raw numbers (unformatted values) and text.
func parseAmountCell(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		d := decimal.NewFromFloat(n).Round(2)
		if !d.IsPositive() {
			return decimal.Zero, core.ErrInvalidAmount
		}
		return d, nil
	case string:
		return core.ParseAmount(n)
	case nil:
		return decimal.Zero, core.ErrInvalidAmount
	default:
		return decimal.Zero, errors.Join(core.ErrInvalidAmount, fmt.Errorf("unsupported cell type %T", v))
	}
}

func cell(row []interface{}, idx int) interface{} {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func cellString(row []interface{}, idx int) string {
	v := cell(row, idx)
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}
