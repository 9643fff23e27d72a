package entity

import (
	"fmt"
	"strings"
)

// Method selects the calibration estimator.
type Method string

const (
	// MethodOLS regresses consecutive observations on each other.
	MethodOLS Method = "OLS"
	// MethodMLE maximizes the exact transition likelihood.
	MethodMLE Method = "MLE"
)

// ParseMethod accepts "ols" or "mle" in any case.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodOLS, MethodMLE:
		return m, nil
	}
	return "", fmt.Errorf("unknown calibration method %q (want ols or mle)", s)
}

// Scheme selects the step recursion of the path simulator.
type Scheme string

const (
	// SchemeExact samples the closed-form Gaussian transition.
	SchemeExact Scheme = "EXACT"
	// SchemeEuler is the Euler–Maruyama discretization.
	SchemeEuler Scheme = "EULER"
)

// ParseScheme accepts "exact" or "euler" in any case.
func ParseScheme(s string) (Scheme, error) {
	switch sc := Scheme(strings.ToUpper(strings.TrimSpace(s))); sc {
	case SchemeExact, SchemeEuler:
		return sc, nil
	}
	return "", fmt.Errorf("unknown simulation scheme %q (want exact or euler)", s)
}

// SimulationConfig is the caller-supplied shape of a Monte Carlo run.
type SimulationConfig struct {
	Horizon int    `json:"horizon"`        // Number of steps, > 0
	NPaths  int    `json:"n_paths"`        // Number of paths, > 0
	Seed    *int64 `json:"seed,omitempty"` // Nil draws a fresh seed
	Scheme  Scheme `json:"scheme"`
}

// Validate checks the config without touching any parameters.
func (c SimulationConfig) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if c.NPaths <= 0 {
		return fmt.Errorf("n_paths must be positive, got %d", c.NPaths)
	}
	if _, err := ParseScheme(string(c.Scheme)); err != nil {
		return err
	}
	return nil
}

// WithSeed returns a copy of c with a fixed seed.
func (c SimulationConfig) WithSeed(seed int64) SimulationConfig {
	c.Seed = &seed
	return c
}
