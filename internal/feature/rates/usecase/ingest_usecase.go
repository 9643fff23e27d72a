package usecase

import (
	"context"
	"log/slog"

	"rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/shared/ratelimiter"
)

// ingestObservations は1回のリクエストで取得する観測値の件数です。
const ingestObservations = DefaultLimit

// RateSource はリモートの統計データ API から系列を取得します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type RateSource interface {
	FetchSeries(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error)
}

// IngestUsecase は外部APIからデータを取得し、データベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	source      RateSource
	rates       RateRepository
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(source RateSource, rates RateRepository, rateLimiter ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{source: source, rates: rates, rateLimiter: rateLimiter}
}

// ingestOne は1系列を取得してデータベースに一括で挿入（または更新）し、保存件数を返します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, key string) (int, error) {
	s, _, err := iu.source.FetchSeries(ctx, key, ingestObservations)
	if err != nil {
		return 0, err
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if err := iu.rates.UpsertBatch(ctx, key, s.Observations); err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// IngestAll は指定された全系列を取得して永続化し、成功した系列数を返します。
// 1つの系列が失敗しても処理は続行します。ctx のキャンセルのみが処理を中断します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, keys []string) (int, error) {
	ok := 0
	for _, key := range keys {
		if err := iu.rateLimiter.WaitIfNeeded(ctx); err != nil {
			return ok, err
		}
		n, err := iu.ingestOne(ctx, key)
		if err != nil {
			// 1つの系列でエラーが発生しても処理を止めずにログに出力し、次の処理を続ける
			slog.Error("failed to ingest series", "key", key, "error", err)
			continue
		}
		slog.Info("ingested series", "key", key, "observations", n)
		ok++
	}
	return ok, nil
}
