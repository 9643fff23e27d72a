package export

import (
	"encoding/json"
	"io"

	ratesentity "rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/simulation/domain/entity"
	"rate_backend/internal/feature/simulation/usecase"
)

// StatsDocument is the JSON statistics export.
type StatsDocument struct {
	Parameters Parameters         `json:"parameters"`
	Statistics Statistics         `json:"statistics"`
	Quality    *entity.FitQuality `json:"quality,omitempty"`
	Metadata   Metadata           `json:"metadata"`
}

// Parameters are the calibrated constants and the starting rate.
type Parameters struct {
	Kappa float64 `json:"kappa"`
	Theta float64 `json:"theta"`
	Sigma float64 `json:"sigma"`
	R0    float64 `json:"r0"`
	DT    float64 `json:"dt"`
}

// Statistics groups terminal, path and validation outputs.
type Statistics struct {
	Terminal       entity.TerminalStats    `json:"terminal"`
	Paths          entity.PathStats        `json:"paths"`
	Validation     entity.ValidationReport `json:"validation"`
	SimulationInfo entity.SimulationInfo   `json:"simulation_info"`
}

// Calibration describes how the parameters were obtained.
type Calibration struct {
	Requested     entity.Method `json:"requested"`
	Used          entity.Method `json:"used"`
	FellBack      bool          `json:"fell_back"`
	Status        string        `json:"optimizer_status,omitempty"`
	Iterations    int           `json:"iterations,omitempty"`
	LogLikelihood float64       `json:"log_likelihood"`
	Observations  int           `json:"observations"`
}

// Metadata records where the data came from and how the run was invoked.
type Metadata struct {
	RunID          string                 `json:"run_id"`
	DataSource     ratesentity.SeriesMeta `json:"data_source"`
	Calibration    Calibration            `json:"calibration"`
	SimulationArgs map[string]any         `json:"simulation_args,omitempty"`
	ExecutionTime  float64                `json:"execution_time_seconds"`
}

// NewStatsDocument assembles the export for res. args echoes the invocation.
func NewStatsDocument(res *usecase.RunResult, args map[string]any) StatsDocument {
	run := res.Run
	return StatsDocument{
		Parameters: Parameters{
			Kappa: run.Params.Kappa,
			Theta: run.Params.Theta,
			Sigma: run.Params.Sigma,
			R0:    run.R0,
			DT:    run.Params.DT,
		},
		Statistics: Statistics{
			Terminal:       run.Report.Terminal,
			Paths:          run.PathStats,
			Validation:     run.Report,
			SimulationInfo: run.Info,
		},
		Quality: run.Quality,
		Metadata: Metadata{
			RunID:      run.ID,
			DataSource: res.Meta,
			Calibration: Calibration{
				Requested:     res.Calibration.Requested,
				Used:          res.Calibration.Used,
				FellBack:      res.Calibration.FellBack,
				Status:        res.Calibration.Status,
				Iterations:    res.Calibration.Iterations,
				LogLikelihood: res.Calibration.LogLikelihood,
				Observations:  res.Calibration.Observations,
			},
			SimulationArgs: args,
			ExecutionTime:  res.Elapsed.Seconds(),
		},
	}
}

// WriteStatsJSON writes doc as indented JSON.
func WriteStatsJSON(w io.Writer, doc StatsDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// SaveStatsJSON writes doc to path, creating parent directories.
func SaveStatsJSON(path string, doc StatsDocument) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteStatsJSON(w, doc)
	})
}
