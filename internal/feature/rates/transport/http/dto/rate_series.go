// Package dto defines data transfer objects for the rates HTTP API.
package dto

import openapi_types "github.com/oapi-codegen/runtime/types"

// ObservationItem is one fixing in the API response.
type ObservationItem struct {
	Date openapi_types.Date `json:"date"`
	Rate float64            `json:"rate"`
}

// RateSeriesResponse is the body of GET /rates/:key.
type RateSeriesResponse struct {
	Key          string            `json:"key"`
	Count        int               `json:"count"`
	LastDate     string            `json:"last_date,omitempty"`
	RateRange    string            `json:"rate_range,omitempty"`
	Observations []ObservationItem `json:"observations"`
}

// ErrorResponse is returned for any failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
