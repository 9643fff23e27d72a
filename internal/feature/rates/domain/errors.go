// Package domain holds the errors shared by the rates feature.
package domain

import "errors"

var (
	// ErrSeriesNotFound is returned when no observations are stored for a series key.
	ErrSeriesNotFound = errors.New("rate series not found")
	// ErrSourceUnavailable is returned when no remote or local source could supply a series.
	ErrSourceUnavailable = errors.New("no rate source available")
)
