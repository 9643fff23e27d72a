package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rate_backend/internal/feature/rates/domain"
	"rate_backend/internal/feature/rates/domain/entity"
)

// FileSource はローカルに保存された系列を読み込みます。
type FileSource interface {
	LoadSeries(ctx context.Context) (entity.RateSeries, entity.SeriesMeta, error)
}

// Candidate はリモートから取得を試みる系列の候補です。
type Candidate struct {
	Key   string // "dataset/series" 形式の ECB キー
	Label string
}

// LoadUsecase は候補系列をリモートから順に試し、すべて失敗した場合はローカルファイルに切り替えます。
type LoadUsecase struct {
	remote RateSource
	local  FileSource
	lastN  int
}

// NewLoadUsecase は新しい LoadUsecase を作成します。remote と local はどちらか一方を nil にできます。
func NewLoadUsecase(remote RateSource, local FileSource, lastN int) *LoadUsecase {
	if lastN <= 0 {
		lastN = DefaultLimit
	}
	return &LoadUsecase{remote: remote, local: local, lastN: lastN}
}

// Load は最初に取得できた系列と、その取得元を返します。
func (lu *LoadUsecase) Load(ctx context.Context, tenor string, candidates []Candidate) (entity.RateSeries, entity.SeriesMeta, error) {
	var failures []string
	if lu.remote != nil {
		for _, c := range candidates {
			s, meta, err := lu.remote.FetchSeries(ctx, c.Key, lu.lastN)
			if err == nil {
				err = s.Validate()
			}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return entity.RateSeries{}, entity.SeriesMeta{}, err
				}
				slog.Warn("remote series unavailable", "key", c.Key, "label", c.Label, "error", err)
				failures = append(failures, fmt.Sprintf("%s: %v", c.Key, err))
				continue
			}
			s.Tenor = tenor
			meta.SeriesLabel = c.Label
			return s, meta.Describe(s), nil
		}
	}

	if lu.local == nil {
		return entity.RateSeries{}, entity.SeriesMeta{}, fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, strings.Join(failures, "; "))
	}
	s, meta, err := lu.local.LoadSeries(ctx)
	if err != nil {
		failures = append(failures, fmt.Sprintf("local: %v", err))
		return entity.RateSeries{}, entity.SeriesMeta{}, fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, strings.Join(failures, "; "))
	}
	if err := s.Validate(); err != nil {
		return entity.RateSeries{}, entity.SeriesMeta{}, fmt.Errorf("%w: local series: %w", domain.ErrSourceUnavailable, err)
	}
	s.Tenor = tenor
	if len(failures) > 0 {
		meta.FallbackReason = strings.Join(failures, "; ")
		slog.Warn("using local series", "path", meta.Path, "reason", meta.FallbackReason)
	}
	return s, meta.Describe(s), nil
}
