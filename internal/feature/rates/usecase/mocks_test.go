package usecase_test

import (
	"context"
	"errors"
	"time"

	"rate_backend/internal/feature/rates/domain/entity"
)

// ErrDB はモックと期待値の間で共有されるセンチネルエラーです。
var ErrDB = errors.New("database error")

// ErrRemote はリモートAPIの失敗を表すセンチネルエラーです。
var ErrRemote = errors.New("remote API error")

// mockRateRepository はRateRepositoryインターフェースのモック実装です。
type mockRateRepository struct {
	FindFunc        func(ctx context.Context, key string, limit int) ([]entity.Observation, error)
	UpsertBatchFunc func(ctx context.Context, key string, obs []entity.Observation) error
	FindCalls       int
	UpsertCalls     int
}

func (m *mockRateRepository) Find(ctx context.Context, key string, limit int) ([]entity.Observation, error) {
	m.FindCalls++
	if m.FindFunc != nil {
		return m.FindFunc(ctx, key, limit)
	}
	return nil, errors.New("FindFunc is not implemented")
}

func (m *mockRateRepository) UpsertBatch(ctx context.Context, key string, obs []entity.Observation) error {
	m.UpsertCalls++
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, key, obs)
	}
	return errors.New("UpsertBatchFunc is not implemented")
}

// mockRateSource はRateSourceインターフェースのモック実装です。
type mockRateSource struct {
	FetchSeriesFunc func(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error)
	Keys            []string
}

func (m *mockRateSource) FetchSeries(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error) {
	m.Keys = append(m.Keys, key)
	if m.FetchSeriesFunc != nil {
		return m.FetchSeriesFunc(ctx, key, lastN)
	}
	return entity.RateSeries{}, entity.SeriesMeta{}, errors.New("FetchSeriesFunc is not implemented")
}

// mockFileSource はFileSourceインターフェースのモック実装です。
type mockFileSource struct {
	LoadSeriesFunc func(ctx context.Context) (entity.RateSeries, entity.SeriesMeta, error)
	Calls          int
}

func (m *mockFileSource) LoadSeries(ctx context.Context) (entity.RateSeries, entity.SeriesMeta, error) {
	m.Calls++
	if m.LoadSeriesFunc != nil {
		return m.LoadSeriesFunc(ctx)
	}
	return entity.RateSeries{}, entity.SeriesMeta{}, errors.New("LoadSeriesFunc is not implemented")
}

// mockRateLimiter は待機せずに呼び出し回数だけを記録します。
type mockRateLimiter struct {
	Err   error
	Calls int
}

func (m *mockRateLimiter) WaitIfNeeded(ctx context.Context) error {
	m.Calls++
	return m.Err
}

// observations は2024-01-02から1日ずつの観測値を作ります。
func observations(rates ...float64) []entity.Observation {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]entity.Observation, len(rates))
	for i, r := range rates {
		out[i] = entity.Observation{Date: start.AddDate(0, 0, i), Rate: r}
	}
	return out
}
