package calibration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/entity"
)

// fitMLE maximizes the exact likelihood over (ln kappa, z, ln sigma) where
// theta = theta0 + z·s and s is the stationary std of the OLS estimate, so
// that all three coordinates are of order one.
func fitMLE(tr *transitions, dt float64, o options, nObs int) (Result, error) {
	start, err := fitOLS(tr, dt)
	if err != nil {
		return Result{}, fmt.Errorf("MLE starting point: %w", err)
	}
	scale := start.StationaryStd()

	decode := func(u []float64) entity.ParameterSet {
		return entity.ParameterSet{
			Kappa: math.Exp(u[0]),
			Theta: start.Theta + u[1]*scale,
			Sigma: math.Exp(u[2]),
			DT:    dt,
		}
	}
	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			p := decode(u)
			return tr.negLogLikelihood(p.Kappa, p.Theta, p.Sigma, dt)
		},
	}
	settings := &optimize.Settings{
		MajorIterations: o.maxIterations,
		FuncEvaluations: o.maxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-12,
			Iterations: 50,
		},
	}
	x0 := []float64{math.Log(start.Kappa), 0, math.Log(start.Sigma)}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})

	fail := func(reason string) (Result, error) {
		if o.fallback == FallbackOLS {
			return Result{
				Params:        start,
				Requested:     entity.MethodMLE,
				Used:          entity.MethodOLS,
				FellBack:      true,
				Status:        reason,
				LogLikelihood: -tr.negLogLikelihood(start.Kappa, start.Theta, start.Sigma, dt),
				Observations:  nObs,
			}, nil
		}
		return Result{}, fmt.Errorf("%w: %w: %s", domain.ErrCalibration, domain.ErrNotConverged, reason)
	}
	if err != nil {
		return fail(err.Error())
	}
	if res == nil || !converged(res.Status) {
		status := "no result"
		if res != nil {
			status = res.Status.String()
		}
		return fail(status)
	}

	p := decode(res.X)
	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrCalibration, err)
	}
	return Result{
		Params:        p,
		Requested:     entity.MethodMLE,
		Used:          entity.MethodMLE,
		Status:        res.Status.String(),
		Iterations:    res.MajorIterations,
		Evaluations:   res.FuncEvaluations,
		LogLikelihood: -res.F,
		Observations:  nObs,
	}, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success,
		optimize.FunctionConvergence,
		optimize.FunctionThreshold,
		optimize.GradientThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}
