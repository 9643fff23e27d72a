// Package entity defines the domain models for the simulation feature.
package entity

import (
	"fmt"
	"math"
)

// DefaultDT is one business day expressed in years.
const DefaultDT = 1.0 / 252.0

// ParameterSet holds the constants of the mean-reverting short-rate process
//
//	dr = kappa·(theta - r)·dt + sigma·dW
//
// together with the time step the parameters were calibrated with.
type ParameterSet struct {
	Kappa float64 `json:"kappa"` // Reversion speed, > 0
	Theta float64 `json:"theta"` // Long-run level
	Sigma float64 `json:"sigma"` // Instantaneous volatility, > 0
	DT    float64 `json:"dt"`    // Calibration step in years, > 0
}

// Validate reports whether the set describes a stationary, non-degenerate process.
func (p ParameterSet) Validate() error {
	switch {
	case !finite(p.Kappa) || p.Kappa <= 0:
		return fmt.Errorf("kappa must be positive, got %v", p.Kappa)
	case !finite(p.Theta):
		return fmt.Errorf("theta must be finite, got %v", p.Theta)
	case !finite(p.Sigma) || p.Sigma <= 0:
		return fmt.Errorf("sigma must be positive, got %v", p.Sigma)
	case !finite(p.DT) || p.DT <= 0:
		return fmt.Errorf("dt must be positive, got %v", p.DT)
	}
	return nil
}

// Decay returns e^{-kappa·t}.
func (p ParameterSet) Decay(t float64) float64 {
	return math.Exp(-p.Kappa * t)
}

// ConditionalMean is E[r(t) | r(0)=r0].
func (p ParameterSet) ConditionalMean(r0, t float64) float64 {
	return p.Theta + (r0-p.Theta)*p.Decay(t)
}

// ConditionalVariance is Var[r(t) | r(0)], sigma²·(1-e^{-2·kappa·t})/(2·kappa).
func (p ParameterSet) ConditionalVariance(t float64) float64 {
	return p.Sigma * p.Sigma * -math.Expm1(-2*p.Kappa*t) / (2 * p.Kappa)
}

// StationaryStd is the standard deviation of the stationary distribution.
func (p ParameterSet) StationaryStd() float64 {
	return p.Sigma / math.Sqrt(2*p.Kappa)
}

func (p ParameterSet) String() string {
	return fmt.Sprintf("ParameterSet(κ=%.4f, θ=%.4f, σ=%.4f, dt=%.6f)", p.Kappa, p.Theta, p.Sigma, p.DT)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
