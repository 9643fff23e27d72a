// Package domain defines domain-level errors for the simulation feature.
package domain

import "errors"

// Domain errors for calibration, simulation and validation.
// All of them are terminal for the call that returned them; nothing is retried
// and no partial result is returned alongside.
var (
	// ErrData indicates a malformed or insufficient historical rate series
	// (too few points, unordered or duplicate dates, non-finite rates).
	ErrData = errors.New("invalid rate series")

	// ErrCalibration indicates that parameters could not be estimated:
	// non-positive kappa or sigma, or an optimizer that did not converge.
	ErrCalibration = errors.New("calibration failed")

	// ErrNotConverged is wrapped together with ErrCalibration when the
	// likelihood optimizer stops without reaching a converged status.
	ErrNotConverged = errors.New("likelihood optimizer did not converge")

	// ErrSimulation indicates an invalid horizon, path count, scheme or parameter set.
	ErrSimulation = errors.New("simulation failed")

	// ErrValidation indicates a shape mismatch between an ensemble and the requested horizon.
	ErrValidation = errors.New("validation failed")

	// ErrRunNotFound is returned when no stored run has the requested ID.
	ErrRunNotFound = errors.New("simulation run not found")
)
