package entity

import "time"

// TerminalStats summarizes the final column of an ensemble.
type TerminalStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"` // Sample standard deviation (n-1)
	P05    float64 `json:"p05"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ValidationReport compares terminal statistics with the analytical
// terminal moments of the process. It only reports; acceptance is up to the caller.
type ValidationReport struct {
	Horizon int     `json:"horizon"`
	DT      float64 `json:"dt"`
	T       float64 `json:"total_time_years"`
	R0      float64 `json:"r0"`

	AnalyticalMean float64 `json:"theoretical_terminal_mean"`
	AnalyticalStd  float64 `json:"theoretical_terminal_std"`
	AnalyticalP05  float64 `json:"theoretical_p05"`
	AnalyticalP95  float64 `json:"theoretical_p95"`

	EmpiricalMean float64 `json:"empirical_terminal_mean"`
	EmpiricalStd  float64 `json:"empirical_terminal_std"`

	MeanError         float64 `json:"mean_error"`
	MeanRelativeError float64 `json:"mean_relative_error"`
	StdError          float64 `json:"std_error"`
	StdRelativeError  float64 `json:"std_relative_error"`

	Terminal TerminalStats `json:"terminal"`
}

// PathStats describes whole trajectories rather than their end points.
type PathStats struct {
	MeanPathVolatility float64 `json:"mean_path_volatility"` // Mean over paths of the per-path std across time
	MeanMaxDrawdown    float64 `json:"max_drawdown"`         // Mean over paths of the largest peak-to-trough fall, in rate units
	AboveInitial       float64 `json:"time_above_initial"`   // Fraction of paths ending above their starting rate
	NegativeRateProb   float64 `json:"negative_rates_prob"`  // Fraction of paths that touch a negative rate
}

// FitQuality describes the standardized one-step residuals of a fitted model.
type FitQuality struct {
	RMSE             float64 `json:"rmse"`
	MeanResidual     float64 `json:"mean_residual"`
	ResidualAutocorr float64 `json:"residual_autocorr"`
	Observations     int     `json:"observations"`
}

// SimulationInfo describes the grid of a run.
type SimulationInfo struct {
	NPaths    int     `json:"n_paths"`
	NSteps    int     `json:"n_steps"`
	TotalTime float64 `json:"total_time_years"`
	DT        float64 `json:"dt"`
	Seed      uint64  `json:"seed"`
	Scheme    Scheme  `json:"scheme"`
}

// Run is the persisted summary of one calibrate-simulate-validate pass.
type Run struct {
	ID          string
	SeriesKey   string
	Tenor       string
	Calibration Method
	FellBack    bool // MLE failed and the OLS estimate was used on request
	Params      ParameterSet
	R0          float64
	Info        SimulationInfo
	Report      ValidationReport
	PathStats   PathStats
	Quality     *FitQuality
	CreatedAt   time.Time
}
