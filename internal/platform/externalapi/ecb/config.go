// Package ecb provides a client for the ECB statistical data web service.
package ecb

import (
	"time"

	"rate_backend/internal/platform/config"
)

// DefaultBaseURL is the public SDMX REST endpoint.
const DefaultBaseURL = "https://sdw-wsrest.ecb.europa.eu/service/data"

// Config holds configuration for the ECB API client.
type Config struct {
	BaseURL string        // Base URL, without the dataset path
	Timeout time.Duration // HTTP request timeout
}

// FromAppConfig converts the application ECB section.
func FromAppConfig(c config.ECBConfig) Config {
	cfg := Config{BaseURL: c.BaseURL, Timeout: c.Timeout}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return cfg
}
