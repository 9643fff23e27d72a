// Package csvsource reads rate observations from CSV, either a response body
// of the statistical data API or a local fallback file.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rate_backend/internal/feature/rates/domain/entity"
)

var (
	dateColumns  = []string{"TIME_PERIOD", "DATE", "TIME"}
	valueColumns = []string{"OBS_VALUE", "VALUE", "RATE"}

	// percentThreshold: a series whose maximum exceeds it is quoted in percent.
	percentThreshold = decimal.NewFromInt(2)
	hundred          = decimal.NewFromInt(100)

	dateLayouts = []string{time.DateOnly, "2006-01", "2006", time.RFC3339}
)

// ErrMissingColumns is returned when no date or value column is recognized.
var ErrMissingColumns = errors.New("csv: date or value column not found")

type row struct {
	date  time.Time
	value decimal.Decimal
}

// Parse reads a CSV with a header row. The date column is the first of
// TIME_PERIOD, DATE or TIME and the value column the first of OBS_VALUE,
// VALUE or RATE, matched case-insensitively. Rows with an empty or
// non-numeric value are dropped. Values are converted from percent when the
// largest exceeds 2. The result is sorted by date; for repeated dates the
// last row wins.
func Parse(r io.Reader) ([]entity.Observation, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	di, vi := findColumn(header, dateColumns), findColumn(header, valueColumns)
	if di < 0 || vi < 0 {
		return nil, fmt.Errorf("%w: have %v", ErrMissingColumns, header)
	}

	var rows []row
	maxValue := decimal.Zero
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if di >= len(rec) || vi >= len(rec) {
			continue
		}
		raw := strings.TrimSpace(rec[vi])
		if raw == "" || strings.EqualFold(raw, "nan") {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		d, err := parseDate(rec[di])
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 || v.GreaterThan(maxValue) {
			maxValue = v
		}
		rows = append(rows, row{date: d, value: v})
	}

	percent := maxValue.GreaterThan(percentThreshold)
	slices.SortStableFunc(rows, func(a, b row) int { return a.date.Compare(b.date) })

	out := make([]entity.Observation, 0, len(rows))
	for _, rw := range rows {
		v := rw.value
		if percent {
			v = v.Div(hundred)
		}
		o := entity.Observation{Date: rw.date, Rate: v.InexactFloat64()}
		if n := len(out); n > 0 && out[n-1].Date.Equal(o.Date) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func findColumn(header, names []string) int {
	for _, name := range names {
		if i := slices.IndexFunc(header, func(h string) bool {
			return strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name)
		}); i >= 0 {
			return i
		}
	}
	return -1
}

// parseDate accepts daily, monthly and yearly periods. Periods map to their
// first day, in UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("csv: parse date %q", s)
}
