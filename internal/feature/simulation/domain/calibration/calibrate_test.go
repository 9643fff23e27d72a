package calibration_test

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ratesentity "rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/calibration"
	"rate_backend/internal/feature/simulation/domain/entity"
)

var trueParams = entity.ParameterSet{Kappa: 2.0, Theta: 0.01, Sigma: 0.02, DT: entity.DefaultDT}

// ouSeries は厳密な遷移分布から n 点の系列を生成します。
func ouSeries(p entity.ParameterSet, r0 float64, n int, seed uint64) ratesentity.RateSeries {
	rng := rand.New(rand.NewPCG(seed, 0))
	a := p.Decay(p.DT)
	b := math.Sqrt(p.ConditionalVariance(p.DT))
	start := time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)

	obs := make([]ratesentity.Observation, n)
	r := r0
	for i := range obs {
		obs[i] = ratesentity.Observation{Date: start.AddDate(0, 0, i), Rate: r}
		r = p.Theta + (r-p.Theta)*a + b*rng.NormFloat64()
	}
	return ratesentity.RateSeries{Key: "TEST", Tenor: "3M", Observations: obs}
}

// seriesOf は日付を1日ずつ進めた系列を作ります。
func seriesOf(rates ...float64) ratesentity.RateSeries {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]ratesentity.Observation, len(rates))
	for i, r := range rates {
		obs[i] = ratesentity.Observation{Date: start.AddDate(0, 0, i), Rate: r}
	}
	return ratesentity.RateSeries{Key: "TEST", Observations: obs}
}

func relErr(got, want float64) float64 {
	return math.Abs(got-want) / math.Abs(want)
}

// TestCalibrate_RecoversSigma は5000点の系列から両推定量が sigma を5%以内で復元し、互いに一致することを確認します。
func TestCalibrate_RecoversSigma(t *testing.T) {
	series := ouSeries(trueParams, trueParams.Theta, 5000, 42)

	ols, err := calibration.Calibrate(series, entity.MethodOLS, entity.DefaultDT)
	require.NoError(t, err)
	mle, err := calibration.Calibrate(series, entity.MethodMLE, entity.DefaultDT)
	require.NoError(t, err)

	assert.Less(t, relErr(ols.Sigma, trueParams.Sigma), 0.05, "OLS sigma %v", ols.Sigma)
	assert.Less(t, relErr(mle.Sigma, trueParams.Sigma), 0.05, "MLE sigma %v", mle.Sigma)

	// 同じ尤度の最適点なので推定値はほぼ一致する
	assert.Less(t, relErr(mle.Kappa, ols.Kappa), 0.02)
	assert.InDelta(t, ols.Theta, mle.Theta, 0.02*trueParams.StationaryStd())
	assert.Less(t, relErr(mle.Sigma, ols.Sigma), 0.02)

	for _, p := range []entity.ParameterSet{ols, mle} {
		assert.Greater(t, p.Kappa, 0.0)
		assert.Greater(t, p.Sigma, 0.0)
		assert.Equal(t, entity.DefaultDT, p.DT)
	}
}

// TestCalibrate_RecoversAllParametersOnLongSeries は十分長い系列で全パラメータが5%以内に収まることを確認します。
func TestCalibrate_RecoversAllParametersOnLongSeries(t *testing.T) {
	if testing.Short() {
		t.Skip("long series")
	}
	series := ouSeries(trueParams, trueParams.Theta, 1_000_000, 7)

	for _, method := range []entity.Method{entity.MethodOLS, entity.MethodMLE} {
		t.Run(string(method), func(t *testing.T) {
			p, err := calibration.Calibrate(series, method, entity.DefaultDT)
			require.NoError(t, err)
			assert.Less(t, relErr(p.Kappa, trueParams.Kappa), 0.05, "kappa %v", p.Kappa)
			assert.Less(t, relErr(p.Theta, trueParams.Theta), 0.05, "theta %v", p.Theta)
			assert.Less(t, relErr(p.Sigma, trueParams.Sigma), 0.05, "sigma %v", p.Sigma)
		})
	}
}

func TestCalibrateDetailed_MLEDiagnostics(t *testing.T) {
	series := ouSeries(trueParams, 0.03, 2000, 3)

	ols, err := calibration.CalibrateDetailed(series, entity.MethodOLS, entity.DefaultDT)
	require.NoError(t, err)
	mle, err := calibration.CalibrateDetailed(series, entity.MethodMLE, entity.DefaultDT)
	require.NoError(t, err)

	assert.Equal(t, entity.MethodMLE, mle.Used)
	assert.False(t, mle.FellBack)
	assert.Positive(t, mle.Evaluations)
	assert.NotEmpty(t, mle.Status)
	assert.Equal(t, 2000, mle.Observations)
	// MLE は OLS の点から始めるので尤度が下がることはない
	assert.GreaterOrEqual(t, mle.LogLikelihood, ols.LogLikelihood-1e-6)
}

func TestCalibrate_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		series  ratesentity.RateSeries
		method  entity.Method
		dt      float64
		wantErr []error
	}{
		{
			name:    "single observation",
			series:  seriesOf(0.01),
			method:  entity.MethodOLS,
			dt:      entity.DefaultDT,
			wantErr: []error{domain.ErrCalibration, domain.ErrData},
		},
		{
			name:    "three observations leave no residual degree of freedom",
			series:  seriesOf(0.01, 0.012, 0.013),
			method:  entity.MethodOLS,
			dt:      entity.DefaultDT,
			wantErr: []error{domain.ErrCalibration, domain.ErrData},
		},
		{
			name:    "three observations with MLE",
			series:  seriesOf(0.01, 0.012, 0.013),
			method:  entity.MethodMLE,
			dt:      entity.DefaultDT,
			wantErr: []error{domain.ErrCalibration, domain.ErrData},
		},
		{
			name:    "empty series with MLE",
			series:  seriesOf(),
			method:  entity.MethodMLE,
			dt:      entity.DefaultDT,
			wantErr: []error{domain.ErrCalibration, domain.ErrData},
		},
		{
			name:    "constant series",
			series:  seriesOf(0.02, 0.02, 0.02, 0.02, 0.02),
			method:  entity.MethodOLS,
			dt:      entity.DefaultDT,
			wantErr: []error{domain.ErrCalibration, domain.ErrData},
		},
		{
			name:    "explosive series is not mean-reverting",
			series:  seriesOf(0.01, 0.011, 0.0121, 0.01331, 0.014641, 0.0161051),
			method:  entity.MethodOLS,
			dt:      entity.DefaultDT,
			wantErr: []error{domain.ErrCalibration},
		},
		{
			name:    "explosive series with MLE",
			series:  seriesOf(0.01, 0.011, 0.0121, 0.01331, 0.014641, 0.0161051),
			method:  entity.MethodMLE,
			dt:      entity.DefaultDT,
			wantErr: []error{domain.ErrCalibration},
		},
		{
			name:    "non-positive dt",
			series:  seriesOf(0.01, 0.012, 0.011, 0.013),
			method:  entity.MethodOLS,
			dt:      0,
			wantErr: []error{domain.ErrCalibration},
		},
		{
			name:    "unknown method",
			series:  seriesOf(0.01, 0.012, 0.011, 0.013),
			method:  entity.Method("GMM"),
			dt:      entity.DefaultDT,
			wantErr: []error{domain.ErrCalibration},
		},
		{
			name:    "non-finite rate",
			series:  seriesOf(0.01, math.NaN(), 0.011, 0.013),
			method:  entity.MethodOLS,
			dt:      entity.DefaultDT,
			wantErr: []error{domain.ErrData, ratesentity.ErrNonFiniteRate},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calibration.Calibrate(tc.series, tc.method, tc.dt)
			require.Error(t, err)
			for _, want := range tc.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestCalibrate_UnorderedDates(t *testing.T) {
	series := seriesOf(0.01, 0.012, 0.011, 0.013)
	series.Observations[2].Date = series.Observations[1].Date

	_, err := calibration.Calibrate(series, entity.MethodOLS, entity.DefaultDT)
	assert.ErrorIs(t, err, domain.ErrData)
	assert.ErrorIs(t, err, ratesentity.ErrUnorderedDates)
}

// TestCalibrate_MLENotConverged は反復上限で打ち切られた場合の既定動作とフォールバックを確認します。
func TestCalibrate_MLENotConverged(t *testing.T) {
	series := ouSeries(trueParams, trueParams.Theta, 500, 11)

	_, err := calibration.Calibrate(series, entity.MethodMLE, entity.DefaultDT, calibration.WithMaxIterations(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCalibration)
	assert.ErrorIs(t, err, domain.ErrNotConverged)

	res, err := calibration.CalibrateDetailed(series, entity.MethodMLE, entity.DefaultDT,
		calibration.WithMaxIterations(1), calibration.WithFallback(calibration.FallbackOLS))
	require.NoError(t, err)
	assert.True(t, res.FellBack)
	assert.Equal(t, entity.MethodMLE, res.Requested)
	assert.Equal(t, entity.MethodOLS, res.Used)

	ols, err := calibration.Calibrate(series, entity.MethodOLS, entity.DefaultDT)
	require.NoError(t, err)
	assert.Equal(t, ols, res.Params)
}

func TestQuality(t *testing.T) {
	series := ouSeries(trueParams, trueParams.Theta, 5000, 5)

	q, err := calibration.Quality(series, trueParams)
	require.NoError(t, err)
	assert.Equal(t, 5000, q.Observations)
	assert.InDelta(t, 1.0, q.RMSE, 0.05)
	assert.InDelta(t, 0.0, q.MeanResidual, 0.05)
	assert.InDelta(t, 0.0, q.ResidualAutocorr, 0.05)

	// sigma を半分にすると標準化残差は約2倍になる
	half := trueParams
	half.Sigma /= 2
	q2, err := calibration.Quality(series, half)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, q2.RMSE, 0.1)

	_, err = calibration.Quality(seriesOf(0.01), trueParams)
	assert.ErrorIs(t, err, domain.ErrData)

	_, err = calibration.Quality(series, entity.ParameterSet{})
	assert.ErrorIs(t, err, domain.ErrCalibration)
}
