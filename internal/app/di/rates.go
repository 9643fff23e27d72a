// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	rateadapters "rate_backend/internal/feature/rates/adapters"
	ratesusecase "rate_backend/internal/feature/rates/usecase"
	"rate_backend/internal/platform/cache"
	"rate_backend/internal/platform/config"
	"rate_backend/internal/platform/csvsource"
	"rate_backend/internal/platform/externalapi/ecb"
	infrahttp "rate_backend/internal/platform/http"
	"rate_backend/internal/shared/ratelimiter"
)

// NewECBClient creates a fully configured ECB client with HTTP client.
func NewECBClient(cfg config.ECBConfig) *ecb.Client {
	c := ecb.FromAppConfig(cfg)
	return ecb.NewClient(c, infrahttp.NewHTTPClient(c.Timeout))
}

// NewRateRepository returns the database-backed rate store.
// If Redis is available, reads are cached until the next daily fixing.
func NewRateRepository(db *gorm.DB, rdb *redis.Client) ratesusecase.RateRepository {
	repo := rateadapters.NewRateRepository(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingRateRepository(rdb, cache.TimeUntilNextFixing(), repo, "rates")
}

// NewLoadUsecase tries the ECB first and falls back to the configured CSV file.
// Passing a nil remote disables the network entirely.
func NewLoadUsecase(cfg *config.Config, remote ratesusecase.RateSource) *ratesusecase.LoadUsecase {
	var local ratesusecase.FileSource
	if cfg.Simulation.DataCSV != "" {
		local = csvsource.NewFileSource(cfg.Simulation.DataCSV, "local/"+cfg.Simulation.Tenor)
	}
	return ratesusecase.NewLoadUsecase(remote, local, cfg.ECB.LastObservations)
}

// NewIngestUsecase wires the ECB client into the rate store under the configured request budget.
func NewIngestUsecase(cfg *config.Config, rates ratesusecase.RateRepository) *ratesusecase.IngestUsecase {
	limiter := ratelimiter.NewRateLimiter(cfg.ECB.RequestsPerMinute, time.Minute)
	return ratesusecase.NewIngestUsecase(NewECBClient(cfg.ECB), rates, limiter)
}
