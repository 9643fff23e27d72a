// Package usecase は金利系列の取得・保存のビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"

	"rate_backend/internal/feature/rates/domain"
	"rate_backend/internal/feature/rates/domain/entity"
)

const (
	// DefaultLimit は系列クエリのデフォルト返却件数です（ECB の lastNObservations と同じ）。
	DefaultLimit = 600
	// MaxLimit は系列の最大返却件数です。
	MaxLimit = 10000
)

// RateRepository は保存済み観測値の読み書きを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type RateRepository interface {
	// Find は key の直近 limit 件を日付の昇順で返します。
	Find(ctx context.Context, key string, limit int) ([]entity.Observation, error)
	// UpsertBatch は観測値を挿入し、同じ日付が既にあれば更新します。
	UpsertBatch(ctx context.Context, key string, obs []entity.Observation) error
}

// ratesUsecase は保存済み系列の参照ユースケースです。
type ratesUsecase struct {
	rates RateRepository
}

// NewRatesUsecase はratesUsecaseの新しいインスタンスを生成します。
func NewRatesUsecase(rates RateRepository) *ratesUsecase {
	return &ratesUsecase{rates: rates}
}

// GetSeries は key の直近 limit 件を RateSeries として返します。
// limit が範囲外の場合は DefaultLimit を使います。
func (u *ratesUsecase) GetSeries(ctx context.Context, key string, limit int) (entity.RateSeries, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	obs, err := u.rates.Find(ctx, key, limit)
	if err != nil {
		return entity.RateSeries{}, err
	}
	if len(obs) == 0 {
		return entity.RateSeries{}, fmt.Errorf("%w: %s", domain.ErrSeriesNotFound, key)
	}
	return entity.RateSeries{Key: key, Observations: obs}, nil
}
