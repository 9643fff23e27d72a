// Package export writes simulation results to files: a CSV of sample paths
// and a JSON document with parameters and statistics.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"rate_backend/internal/feature/simulation/domain/entity"
)

// SampleSize is the number of paths written when not exporting all of them.
const SampleSize = 100

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WritePathsCSV writes one row per time step with columns time_years and
// path_0..path_{k-1}. Unless allPaths is set, only the first SampleSize paths
// are written, preceded by '#' lines describing the run.
func WritePathsCSV(w io.Writer, run entity.Run, ens *entity.PathEnsemble, allPaths bool) error {
	k := ens.Paths()
	if !allPaths {
		k = min(k, SampleSize)
		t := run.Report.Terminal
		if _, err := fmt.Fprintf(w,
			"# Monte Carlo simulation of the short rate, mean-reverting Gaussian model\n"+
				"# Parameters: %s r0=%s\n"+
				"# Terminal: mean=%s std=%s p05=%s p95=%s\n"+
				"# Seed: %d, scheme: %s, paths: %d of %d\n",
			run.Params, formatFloat(run.R0),
			formatFloat(t.Mean), formatFloat(t.Std), formatFloat(t.P05), formatFloat(t.P95),
			run.Info.Seed, run.Info.Scheme, k, ens.Paths(),
		); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	rec := make([]string, k+1)
	rec[0] = "time_years"
	for i := range k {
		rec[i+1] = "path_" + strconv.Itoa(i)
	}
	if err := cw.Write(rec); err != nil {
		return err
	}

	dt := run.Params.DT
	for t := 0; t < ens.Steps(); t++ {
		col := ens.Column(t)
		rec[0] = formatFloat(float64(t) * dt)
		for i := range k {
			rec[i+1] = formatFloat(col[i])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SavePathsCSV writes the paths CSV to path, creating parent directories.
func SavePathsCSV(path string, run entity.Run, ens *entity.PathEnsemble, allPaths bool) error {
	return writeFile(path, func(w io.Writer) error {
		return WritePathsCSV(w, run, ens, allPaths)
	})
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return bw.Flush()
}
