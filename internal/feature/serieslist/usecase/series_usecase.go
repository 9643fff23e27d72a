// Package usecase implements the business logic for the series catalog.
package usecase

import (
	"context"
	"strings"

	"rate_backend/internal/feature/serieslist/domain/entity"
)

// SeriesRepository abstracts the persistence layer for the series catalog.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SeriesRepository interface {
	ListActive(ctx context.Context) ([]entity.SeriesDefinition, error)
	ListActiveByTenor(ctx context.Context, tenor string) ([]entity.SeriesDefinition, error)
}

// SeriesUsecase provides business logic for catalog operations.
type SeriesUsecase struct {
	repo SeriesRepository
}

// NewSeriesUsecase creates a new SeriesUsecase with the given repository.
func NewSeriesUsecase(r SeriesRepository) *SeriesUsecase {
	return &SeriesUsecase{repo: r}
}

// ListActiveSeries returns all active series.
func (u *SeriesUsecase) ListActiveSeries(ctx context.Context) ([]entity.SeriesDefinition, error) {
	return u.repo.ListActive(ctx)
}

// ListActiveKeys returns the "dataset/key" form of every active series, for ingestion.
func (u *SeriesUsecase) ListActiveKeys(ctx context.Context) ([]string, error) {
	defs, err := u.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(defs))
	for _, d := range defs {
		keys = append(keys, d.FullKey())
	}
	return keys, nil
}

// CandidatesForTenor returns the active series for tenor in the order they should be tried.
// Tenor matching ignores case.
func (u *SeriesUsecase) CandidatesForTenor(ctx context.Context, tenor string) ([]entity.SeriesDefinition, error) {
	return u.repo.ListActiveByTenor(ctx, strings.ToUpper(strings.TrimSpace(tenor)))
}
