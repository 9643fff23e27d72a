// Package dto defines data transfer objects for the serieslist HTTP API.
package dto

// SeriesItem represents a catalog entry in the API response.
type SeriesItem struct {
	Key   string `json:"key"` // "dataset/series" as accepted by /rates and /simulations
	Tenor string `json:"tenor"`
	Label string `json:"label"`
}
