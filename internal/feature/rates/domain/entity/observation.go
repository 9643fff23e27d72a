// Package entity defines the domain models for the rates feature.
package entity

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Observation is a single fixing of an interest rate.
type Observation struct {
	Date time.Time // Fixing date (UTC, date precision)
	Rate float64   // Decimal fraction, e.g. 0.0093 for 0.93%
}

// RateSeries is a date-ordered sequence of observations for one series key.
// Gaps in the calendar are allowed; consecutive observations are treated as
// one uniform time step apart.
type RateSeries struct {
	Key          string        // Series key, e.g. "FM/M.U2.EUR.RT.MM.EURIBOR3MD_.HSTA"
	Tenor        string        // Informational tenor label, e.g. "3M"
	Observations []Observation // Strictly increasing in Date
}

// Errors returned by RateSeries.Validate.
var (
	ErrEmptySeries    = errors.New("series has no observations")
	ErrUnorderedDates = errors.New("series dates are not strictly increasing")
	ErrNonFiniteRate  = errors.New("series contains a non-finite rate")
)

// Len returns the number of observations.
func (s RateSeries) Len() int {
	return len(s.Observations)
}

// Rates returns the rate values in date order.
func (s RateSeries) Rates() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Rate
	}
	return out
}

// Last returns the most recent observation. ok is false for an empty series.
func (s RateSeries) Last() (Observation, bool) {
	if len(s.Observations) == 0 {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// Range returns the smallest and largest rate in the series.
func (s RateSeries) Range() (lo, hi float64) {
	if len(s.Observations) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, o := range s.Observations {
		lo = math.Min(lo, o.Rate)
		hi = math.Max(hi, o.Rate)
	}
	return lo, hi
}

// Validate checks the ordering and finiteness invariants of the series.
func (s RateSeries) Validate() error {
	if len(s.Observations) == 0 {
		return ErrEmptySeries
	}
	for i, o := range s.Observations {
		if math.IsNaN(o.Rate) || math.IsInf(o.Rate, 0) {
			return fmt.Errorf("%w at %s", ErrNonFiniteRate, o.Date.Format(time.DateOnly))
		}
		if i > 0 && !o.Date.After(s.Observations[i-1].Date) {
			return fmt.Errorf("%w: %s follows %s", ErrUnorderedDates,
				o.Date.Format(time.DateOnly), s.Observations[i-1].Date.Format(time.DateOnly))
		}
	}
	return nil
}

// SeriesMeta describes where a series was loaded from.
type SeriesMeta struct {
	Source         string `json:"source"`                    // "ECB_SDW", "fallback_csv" or "store"
	SeriesLabel    string `json:"series_label,omitempty"`    // Catalog label of the series that answered
	URL            string `json:"url,omitempty"`             // Request URL for remote sources
	Path           string `json:"path,omitempty"`            // File path for local sources
	LastDate       string `json:"last_date,omitempty"`       // Date of the last observation
	RateRange      string `json:"rate_range,omitempty"`      // "min - max" in decimal
	FallbackReason string `json:"fallback_reason,omitempty"` // Remote error that triggered the fallback
}

// Describe fills LastDate and RateRange from the series.
func (m SeriesMeta) Describe(s RateSeries) SeriesMeta {
	if last, ok := s.Last(); ok {
		m.LastDate = last.Date.Format(time.DateOnly)
		lo, hi := s.Range()
		m.RateRange = fmt.Sprintf("%.4f - %.4f", lo, hi)
	}
	return m
}
