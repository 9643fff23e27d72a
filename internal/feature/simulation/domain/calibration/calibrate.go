// Package calibration estimates mean-reverting short-rate parameters from a
// historical rate series.
//
// Two estimators are available. OLS regresses each observation on the
// previous one and maps the AR(1) coefficients back to (kappa, theta, sigma)
// using the exact transition variance. MLE maximizes the exact Gaussian
// transition likelihood with a Nelder–Mead search started from the OLS
// estimate.
package calibration

import (
	"fmt"

	ratesentity "rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/entity"
)

// MinObservations is the shortest series either estimator accepts: a
// two-coefficient regression on n-1 pairs needs at least one residual
// degree of freedom.
const MinObservations = 4

// FallbackPolicy decides what MLE does when the optimizer fails.
type FallbackPolicy int

const (
	// FallbackNone surfaces the optimizer failure as ErrNotConverged.
	FallbackNone FallbackPolicy = iota
	// FallbackOLS returns the OLS estimate and marks the result as fallen back.
	FallbackOLS
)

// Result is a calibration outcome with diagnostics.
type Result struct {
	Params        entity.ParameterSet
	Requested     entity.Method // Method asked for
	Used          entity.Method // Method that produced Params
	FellBack      bool          // MLE failed and FallbackOLS applied
	Status        string        // Optimizer status, MLE only
	Iterations    int           // Optimizer major iterations, MLE only
	Evaluations   int           // Likelihood evaluations, MLE only
	LogLikelihood float64       // Exact log-likelihood at Params
	Observations  int
}

type options struct {
	fallback       FallbackPolicy
	maxIterations  int
	maxEvaluations int
}

// Option customizes a calibration call.
type Option func(*options)

// WithFallback sets the MLE non-convergence policy.
func WithFallback(p FallbackPolicy) Option {
	return func(o *options) { o.fallback = p }
}

// WithMaxIterations caps the optimizer's major iterations. Zero means no cap.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

// WithMaxEvaluations caps likelihood evaluations. Zero means no cap.
func WithMaxEvaluations(n int) Option {
	return func(o *options) { o.maxEvaluations = n }
}

// Calibrate fits the process to series with the given method and step size.
func Calibrate(series ratesentity.RateSeries, method entity.Method, dt float64, opts ...Option) (entity.ParameterSet, error) {
	res, err := CalibrateDetailed(series, method, dt, opts...)
	if err != nil {
		return entity.ParameterSet{}, err
	}
	return res.Params, nil
}

// CalibrateDetailed is Calibrate with optimizer diagnostics.
func CalibrateDetailed(series ratesentity.RateSeries, method entity.Method, dt float64, opts ...Option) (Result, error) {
	o := options{fallback: FallbackNone, maxEvaluations: 20000}
	for _, opt := range opts {
		opt(&o)
	}

	if !(dt > 0) {
		return Result{}, fmt.Errorf("%w: dt must be positive, got %v", domain.ErrCalibration, dt)
	}
	tr, err := newTransitions(series)
	if err != nil {
		return Result{}, err
	}

	switch method {
	case entity.MethodOLS:
		p, err := fitOLS(tr, dt)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Params:        p,
			Requested:     method,
			Used:          entity.MethodOLS,
			LogLikelihood: -tr.negLogLikelihood(p.Kappa, p.Theta, p.Sigma, dt),
			Observations:  series.Len(),
		}, nil
	case entity.MethodMLE:
		return fitMLE(tr, dt, o, series.Len())
	default:
		return Result{}, fmt.Errorf("%w: unknown method %q", domain.ErrCalibration, method)
	}
}
