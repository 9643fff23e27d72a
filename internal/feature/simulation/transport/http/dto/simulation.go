// Package dto defines data transfer objects for the simulation HTTP API.
package dto

import (
	"time"

	ratesentity "rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/simulation/domain/entity"
)

// RunRequest is the body of POST /simulations. Either SeriesKey or Tenor
// selects the data; zero values take the server defaults.
type RunRequest struct {
	SeriesKey   string  `json:"series_key"`
	Tenor       string  `json:"tenor"`
	Calibration string  `json:"calibration"`
	Method      string  `json:"method"`
	Horizon     int     `json:"horizon" binding:"gte=0"`
	NPaths      int     `json:"n_paths" binding:"gte=0"`
	Seed        *int64  `json:"seed"`
	DT          float64 `json:"dt" binding:"gte=0"`
	FallbackOLS bool    `json:"fallback_ols"`
	ShowQuality bool    `json:"show_quality"`
}

// Parameters are the calibrated constants and the starting rate.
type Parameters struct {
	Kappa float64 `json:"kappa"`
	Theta float64 `json:"theta"`
	Sigma float64 `json:"sigma"`
	DT    float64 `json:"dt"`
	R0    float64 `json:"r0"`
}

// Statistics groups the outputs of the validation engine.
type Statistics struct {
	Terminal       entity.TerminalStats    `json:"terminal"`
	Paths          entity.PathStats        `json:"paths"`
	Validation     entity.ValidationReport `json:"validation"`
	SimulationInfo entity.SimulationInfo   `json:"simulation_info"`
}

// RunResponse is one calibrate-simulate-validate run.
type RunResponse struct {
	ID          string                  `json:"id"`
	SeriesKey   string                  `json:"series_key"`
	Tenor       string                  `json:"tenor,omitempty"`
	Calibration string                  `json:"calibration"`
	FellBack    bool                    `json:"fell_back"`
	Parameters  Parameters              `json:"parameters"`
	Statistics  Statistics              `json:"statistics"`
	Quality     *entity.FitQuality      `json:"quality,omitempty"`
	DataSource  *ratesentity.SeriesMeta `json:"data_source,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// ErrorResponse is returned for any failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromRun converts a run. meta may be nil for runs read back from the store.
func FromRun(r entity.Run, meta *ratesentity.SeriesMeta) RunResponse {
	return RunResponse{
		ID:          r.ID,
		SeriesKey:   r.SeriesKey,
		Tenor:       r.Tenor,
		Calibration: string(r.Calibration),
		FellBack:    r.FellBack,
		Parameters: Parameters{
			Kappa: r.Params.Kappa,
			Theta: r.Params.Theta,
			Sigma: r.Params.Sigma,
			DT:    r.Params.DT,
			R0:    r.R0,
		},
		Statistics: Statistics{
			Terminal:       r.Report.Terminal,
			Paths:          r.PathStats,
			Validation:     r.Report,
			SimulationInfo: r.Info,
		},
		Quality:    r.Quality,
		DataSource: meta,
		CreatedAt:  r.CreatedAt,
	}
}
