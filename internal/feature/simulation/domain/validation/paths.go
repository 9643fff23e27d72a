package validation

import (
	"fmt"
	"math"

	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/entity"
)

// pathAccumulator tracks one path through a single pass over the columns.
type pathAccumulator struct {
	mean, m2    float64 // Welford running moments
	peak, maxDD float64
	negative    bool
}

// PathStatistics summarizes whole trajectories. Drawdown is measured in rate
// units (peak minus trough) since rates may cross zero.
func PathStatistics(ensemble *entity.PathEnsemble) (entity.PathStats, error) {
	if ensemble == nil || ensemble.Paths() == 0 {
		return entity.PathStats{}, fmt.Errorf("%w: empty ensemble", domain.ErrValidation)
	}

	n, steps := ensemble.Paths(), ensemble.Steps()
	acc := make([]pathAccumulator, n)
	for i := range acc {
		acc[i].peak = math.Inf(-1)
	}

	for t := 0; t < steps; t++ {
		k := float64(t + 1)
		for i, v := range ensemble.Column(t) {
			a := &acc[i]
			d := v - a.mean
			a.mean += d / k
			a.m2 += d * (v - a.mean)

			a.peak = math.Max(a.peak, v)
			a.maxDD = math.Max(a.maxDD, a.peak-v)
			if v < 0 {
				a.negative = true
			}
		}
	}

	first, last := ensemble.Column(0), ensemble.Column(steps-1)
	var vol, dd float64
	var above, negative int
	for i := range acc {
		if steps > 1 {
			vol += math.Sqrt(acc[i].m2 / float64(steps-1))
		}
		dd += acc[i].maxDD
		if last[i] > first[i] {
			above++
		}
		if acc[i].negative {
			negative++
		}
	}

	fn := float64(n)
	return entity.PathStats{
		MeanPathVolatility: vol / fn,
		MeanMaxDrawdown:    dd / fn,
		AboveInitial:       float64(above) / fn,
		NegativeRateProb:   float64(negative) / fn,
	}, nil
}
