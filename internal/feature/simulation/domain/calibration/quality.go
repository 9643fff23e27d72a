package calibration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	ratesentity "rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/entity"
)

// Quality standardizes the one-step residuals of series under params and
// summarizes them. A well-specified fit gives RMSE near 1, mean near 0 and
// no lag-1 autocorrelation.
func Quality(series ratesentity.RateSeries, params entity.ParameterSet) (entity.FitQuality, error) {
	if err := params.Validate(); err != nil {
		return entity.FitQuality{}, fmt.Errorf("%w: %v", domain.ErrCalibration, err)
	}
	if series.Len() < 2 {
		return entity.FitQuality{}, fmt.Errorf("%w: need at least 2 observations, got %d", domain.ErrData, series.Len())
	}

	r := series.Rates()
	phi := params.Decay(params.DT)
	sd := math.Sqrt(params.ConditionalVariance(params.DT))

	z := make([]float64, len(r)-1)
	var ss float64
	for i := 1; i < len(r); i++ {
		mean := params.Theta + (r[i-1]-params.Theta)*phi
		z[i-1] = (r[i] - mean) / sd
		ss += z[i-1] * z[i-1]
	}

	q := entity.FitQuality{
		RMSE:         math.Sqrt(ss / float64(len(z))),
		MeanResidual: stat.Mean(z, nil),
		Observations: series.Len(),
	}
	if len(z) > 2 {
		if ac := stat.Correlation(z[:len(z)-1], z[1:], nil); !math.IsNaN(ac) {
			q.ResidualAutocorr = ac
		}
	}
	return q, nil
}
