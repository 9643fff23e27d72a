// Package validation compares a simulated ensemble with the closed-form
// terminal distribution of the process and summarizes its paths.
package validation

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/entity"
)

// zeroScale is the magnitude below which an analytical value is treated as
// zero and relative errors fall back to absolute ones.
const zeroScale = 1e-12

// Validate reports how far the terminal column of ensemble is from the
// analytical terminal mean and standard deviation after horizon steps of dt,
// starting from the ensemble's first column.
func Validate(ensemble *entity.PathEnsemble, params entity.ParameterSet, horizon int, dt float64) (entity.ValidationReport, error) {
	if ensemble == nil || ensemble.Paths() == 0 {
		return entity.ValidationReport{}, fmt.Errorf("%w: empty ensemble", domain.ErrValidation)
	}
	if horizon <= 0 {
		return entity.ValidationReport{}, fmt.Errorf("%w: horizon must be positive, got %d", domain.ErrValidation, horizon)
	}
	if ensemble.Steps() != horizon+1 {
		return entity.ValidationReport{}, fmt.Errorf("%w: ensemble has %d columns, horizon %d needs %d",
			domain.ErrValidation, ensemble.Steps(), horizon, horizon+1)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return entity.ValidationReport{}, fmt.Errorf("%w: dt must be positive, got %v", domain.ErrValidation, dt)
	}
	if err := params.Validate(); err != nil {
		return entity.ValidationReport{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	T := float64(horizon) * dt
	r0 := ensemble.At(0, 0)
	mean := params.ConditionalMean(r0, T)
	std := math.Sqrt(params.ConditionalVariance(T))
	interval := distuv.Normal{Mu: mean, Sigma: std}

	terminal, err := TerminalStatistics(ensemble.Column(ensemble.Steps() - 1))
	if err != nil {
		return entity.ValidationReport{}, err
	}

	meanErr := math.Abs(terminal.Mean - mean)
	stdErr := math.Abs(terminal.Std - std)
	return entity.ValidationReport{
		Horizon:           horizon,
		DT:                dt,
		T:                 T,
		R0:                r0,
		AnalyticalMean:    mean,
		AnalyticalStd:     std,
		AnalyticalP05:     interval.Quantile(0.05),
		AnalyticalP95:     interval.Quantile(0.95),
		EmpiricalMean:     terminal.Mean,
		EmpiricalStd:      terminal.Std,
		MeanError:         meanErr,
		MeanRelativeError: relative(meanErr, mean),
		StdError:          stdErr,
		StdRelativeError:  relative(stdErr, std),
		Terminal:          terminal,
	}, nil
}

func relative(absErr, ref float64) float64 {
	if math.Abs(ref) < zeroScale {
		return absErr
	}
	return absErr / math.Abs(ref)
}

// TerminalStatistics summarizes values. Std uses the n-1 denominator and is
// zero for a single value. Percentiles interpolate linearly between the order
// statistics at ranks (n-1)·p.
func TerminalStatistics(values []float64) (entity.TerminalStats, error) {
	if len(values) == 0 {
		return entity.TerminalStats{}, fmt.Errorf("%w: no terminal values", domain.ErrValidation)
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	q := func(p float64) float64 { return percentile(sorted, p) }
	ts := entity.TerminalStats{
		Mean:   stat.Mean(sorted, nil),
		Median: q(0.5),
		P05:    q(0.05),
		P25:    q(0.25),
		P75:    q(0.75),
		P95:    q(0.95),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		ts.Std = stat.StdDev(sorted, nil)
	}
	return ts, nil
}

// percentile is the Hyndman–Fan type 7 estimate on sorted data.
func percentile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
