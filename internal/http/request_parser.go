// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// query filters, JSON or form bodies, and the transaction payload.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

// ParseFilter reads the optional year, month and type query parameters.
// Unlike form defaults, invalid values are reported rather than ignored.
func ParseFilter(query url.Values) (core.Filter, error) {
	var f core.Filter
	var err error

	if f.Year, err = optionalInt(query, "year"); err != nil {
		return core.Filter{}, err
	}
	if f.Month, err = optionalInt(query, "month"); err != nil {
		return core.Filter{}, err
	}
	if v := strings.TrimSpace(query.Get("type")); v != "" {
		if f.Kind, err = core.ParseKind(v); err != nil {
			return core.Filter{}, err
		}
	}
	if err := f.Validate(); err != nil {
		return core.Filter{}, err
	}
	return f, nil
}

func optionalInt(values url.Values, key string) (int, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

// RequestBodyParser reads JSON or form-encoded bodies through one API.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed, sanitized string value.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Int returns the value of key as an int, 0 when absent.
func (p *RequestBodyParser) Int(key string) (int, error) {
	v := p.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// ParseTransaction builds a transaction for userID from a create request.
// Dates default to today; amounts accept a dot or comma separator.
func ParseTransaction(p *RequestBodyParser, userID int64, now time.Time) (core.Transaction, error) {
	if err := p.Parse(); err != nil {
		return core.Transaction{}, errors.New("malformed request body")
	}

	date := now.UTC().Truncate(24 * time.Hour)
	if v := p.Get("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return core.Transaction{}, core.ErrInvalidDate
		}
		date = d
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(p.Get("type"))
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		UserID:      userID,
		Date:        date,
		Amount:      amount,
		Kind:        kind,
		Category:    p.Get("category"),
		Description: p.Get("description"),
	}
	return t, t.Validate()
}
