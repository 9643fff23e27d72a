package csvsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/rates/usecase"
)

// SourceName identifies series loaded from a local file in SeriesMeta.
const SourceName = "fallback_csv"

// FileSource loads a series from a local CSV with a date,rate header.
type FileSource struct {
	path string
	key  string
}

var _ usecase.FileSource = (*FileSource)(nil)

// NewFileSource returns a source reading path. key labels the loaded series.
func NewFileSource(path, key string) *FileSource {
	return &FileSource{path: path, key: key}
}

// LoadSeries reads and parses the whole file.
func (f *FileSource) LoadSeries(ctx context.Context) (entity.RateSeries, entity.SeriesMeta, error) {
	if err := ctx.Err(); err != nil {
		return entity.RateSeries{}, entity.SeriesMeta{}, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return entity.RateSeries{}, entity.SeriesMeta{}, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer func() {
		if err := fh.Close(); err != nil {
			slog.Warn("failed to close csv file", "path", f.path, "error", err)
		}
	}()

	obs, err := Parse(fh)
	if err != nil {
		return entity.RateSeries{}, entity.SeriesMeta{}, fmt.Errorf("%s: %w", f.path, err)
	}
	slog.Info("local series loaded", "path", f.path, "observations", len(obs))
	return entity.RateSeries{Key: f.key, Observations: obs}, entity.SeriesMeta{Source: SourceName, Path: f.path}, nil
}
