package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rate_backend/internal/feature/rates/domain"
	"rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/rates/usecase"
)

var candidates = []usecase.Candidate{
	{Key: "FM/M.U2.EUR.RT.MM.EURIBOR3MD_.HSTA", Label: "Euribor 3M"},
	{Key: "MIR/M.B.U2.EUR.4F.KR.MRR_FR.LEV", Label: "ECB MRO"},
}

func TestLoadUsecase_Load(t *testing.T) {
	ctx := context.Background()
	remoteSeries := entity.RateSeries{Key: candidates[1].Key, Observations: observations(0.04, 0.0405, 0.041)}
	localSeries := entity.RateSeries{Key: "local", Observations: observations(0.01, 0.011)}

	testCases := []struct {
		name          string
		remote        func(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error)
		local         func(ctx context.Context) (entity.RateSeries, entity.SeriesMeta, error)
		expectedKey   string
		expectedMeta  entity.SeriesMeta
		expectedCalls int
		expectedErr   error
	}{
		{
			name: "success: second candidate answers",
			remote: func(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error) {
				if key == candidates[0].Key {
					return entity.RateSeries{}, entity.SeriesMeta{}, ErrRemote
				}
				return remoteSeries, entity.SeriesMeta{Source: "ECB_SDW", URL: "https://example.test/" + key}, nil
			},
			expectedKey: candidates[1].Key,
			expectedMeta: entity.SeriesMeta{
				Source:      "ECB_SDW",
				SeriesLabel: "ECB MRO",
				URL:         "https://example.test/" + candidates[1].Key,
				LastDate:    "2024-01-04",
				RateRange:   "0.0400 - 0.0410",
			},
		},
		{
			name: "success: local fallback records every remote failure",
			remote: func(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error) {
				return entity.RateSeries{}, entity.SeriesMeta{}, ErrRemote
			},
			local: func(ctx context.Context) (entity.RateSeries, entity.SeriesMeta, error) {
				return localSeries, entity.SeriesMeta{Source: "fallback_csv", Path: "data/sample.csv"}, nil
			},
			expectedKey: "local",
			expectedMeta: entity.SeriesMeta{
				Source:    "fallback_csv",
				Path:      "data/sample.csv",
				LastDate:  "2024-01-03",
				RateRange: "0.0100 - 0.0110",
				FallbackReason: "FM/M.U2.EUR.RT.MM.EURIBOR3MD_.HSTA: remote API error; " +
					"MIR/M.B.U2.EUR.4F.KR.MRR_FR.LEV: remote API error",
			},
		},
		{
			name: "failure: remote and local both fail",
			remote: func(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error) {
				return entity.RateSeries{}, entity.SeriesMeta{}, ErrRemote
			},
			local: func(ctx context.Context) (entity.RateSeries, entity.SeriesMeta, error) {
				return entity.RateSeries{}, entity.SeriesMeta{}, ErrDB
			},
			expectedErr: domain.ErrSourceUnavailable,
		},
		{
			name: "failure: local series is malformed",
			remote: func(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error) {
				return entity.RateSeries{}, entity.SeriesMeta{}, ErrRemote
			},
			local: func(ctx context.Context) (entity.RateSeries, entity.SeriesMeta, error) {
				return entity.RateSeries{Key: "local"}, entity.SeriesMeta{Source: "fallback_csv"}, nil
			},
			expectedErr: domain.ErrSourceUnavailable,
		},
		{
			name: "failure: remote fails without local source",
			remote: func(ctx context.Context, key string, lastN int) (entity.RateSeries, entity.SeriesMeta, error) {
				return entity.RateSeries{}, entity.SeriesMeta{}, ErrRemote
			},
			expectedErr: domain.ErrSourceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var local usecase.FileSource
			if tc.local != nil {
				local = &mockFileSource{LoadSeriesFunc: tc.local}
			}
			lu := usecase.NewLoadUsecase(&mockRateSource{FetchSeriesFunc: tc.remote}, local, 0)

			s, meta, err := lu.Load(ctx, "3M", candidates)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedKey, s.Key)
			assert.Equal(t, "3M", s.Tenor)
			assert.Equal(t, tc.expectedMeta, meta)
		})
	}
}

// TestLoadUsecase_Load_LocalOnly はリモートが設定されていない場合にローカルのみを読むことを検証します。
func TestLoadUsecase_Load_LocalOnly(t *testing.T) {
	local := &mockFileSource{
		LoadSeriesFunc: func(ctx context.Context) (entity.RateSeries, entity.SeriesMeta, error) {
			return entity.RateSeries{Key: "local", Observations: observations(0.02, 0.021)}, entity.SeriesMeta{Source: "fallback_csv"}, nil
		},
	}

	s, meta, err := usecase.NewLoadUsecase(nil, local, 0).Load(context.Background(), "3M", candidates)
	require.NoError(t, err)
	assert.Equal(t, 1, local.Calls)
	assert.Equal(t, 2, s.Len())
	assert.Empty(t, meta.FallbackReason)
}
