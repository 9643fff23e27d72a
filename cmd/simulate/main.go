// Command simulate calibrates the short-rate model on the latest series for a
// tenor, simulates paths and prints the validation summary.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"rate_backend/internal/app/di"
	"rate_backend/internal/feature/simulation/adapters/export"
	"rate_backend/internal/feature/simulation/domain/entity"
	"rate_backend/internal/feature/simulation/usecase"
	"rate_backend/internal/platform/config"
	"rate_backend/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	fs.String("config", "", "config file (default ./config.yaml if present)")
	fs.String("tenor", "3M", "Euribor tenor")
	fs.String("data-csv", "data/sample_euribor3m.csv", "fallback CSV file")
	fs.String("calibration", "mle", "calibration method: ols or mle")
	fs.Bool("fallback-ols", false, "use the OLS estimate when MLE does not converge")
	fs.Bool("show-quality", false, "print goodness of fit")
	fs.Int("horizon", 252, "simulation horizon in steps")
	fs.Float64("dt", 1.0/252.0, "step size in years")
	fs.Int("n-paths", 10000, "number of Monte Carlo paths")
	fs.String("method", "exact", "simulation scheme: exact or euler")
	fs.String("seed", "", "random seed (fresh seed if empty)")
	fs.String("export-csv", "", "write paths to this CSV file")
	fs.Bool("export-all-paths", false, "export every path instead of a sample")
	fs.String("export-stats", "", "write statistics to this JSON file")
	fs.Bool("offline", false, "skip the ECB API and read the CSV file only")
	fs.BoolP("quiet", "q", false, "print nothing on success")
	fs.BoolP("verbose", "v", false, "debug logging and detailed errors")
	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	quiet, _ := fs.GetBool("quiet")
	verbose, _ := fs.GetBool("verbose")
	offline, _ := fs.GetBool("offline")
	cfgPath, _ := fs.GetString("config")

	// .env が無くてもエラーにしない
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath, fs)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	switch {
	case verbose:
		cfg.Log.Level = "debug"
	case quiet:
		cfg.Log.Level = "error"
	}
	closer, err := logger.Init(cfg.Log)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer func() { _ = closer.Close() }()

	req, err := requestFrom(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	// CLI はデータベースを使わず、ECB とローカルCSVのみから読み込む
	loader := di.NewLoadUsecase(cfg, nil)
	if !offline {
		loader = di.NewLoadUsecase(cfg, di.NewECBClient(cfg.ECB))
	}
	uc := usecase.NewRunUsecase(loader, nil, nil, nil)

	res, err := uc.Run(ctx, req)
	if err != nil {
		if verbose {
			fmt.Fprintf(stderr, "error: %+v\n", err)
		} else {
			fmt.Fprintln(stderr, "error:", err)
		}
		return 1
	}

	if err := exportResult(cfg, res, fs); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if !quiet {
		printSummary(stdout, res)
	}
	return 0
}

func requestFrom(cfg *config.Config) (usecase.RunRequest, error) {
	seed, err := parseSeed(cfg.Simulation.Seed)
	if err != nil {
		return usecase.RunRequest{}, err
	}
	return usecase.RunRequest{
		Tenor:       cfg.Simulation.Tenor,
		Calibration: entity.Method(cfg.Simulation.Calibration),
		Scheme:      entity.Scheme(cfg.Simulation.Method),
		Horizon:     cfg.Simulation.Horizon,
		NPaths:      cfg.Simulation.NPaths,
		Seed:        seed,
		DT:          cfg.Simulation.DT,
		FallbackOLS: cfg.Simulation.FallbackOLS,
		WithQuality: cfg.Simulation.ShowQuality,
	}, nil
}

// parseSeed returns nil for an empty string.
func parseSeed(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q: %w", s, err)
	}
	return &v, nil
}

func exportResult(cfg *config.Config, res *usecase.RunResult, fs *pflag.FlagSet) error {
	if p := cfg.Export.PathsCSV; p != "" {
		if err := export.SavePathsCSV(p, res.Run, res.Ensemble, cfg.Export.AllPaths); err != nil {
			return fmt.Errorf("export paths: %w", err)
		}
		slog.Info("paths exported", "path", p, "all", cfg.Export.AllPaths)
	}
	if p := cfg.Export.StatsJSON; p != "" {
		doc := export.NewStatsDocument(res, flagValues(fs))
		if err := export.SaveStatsJSON(p, doc); err != nil {
			return fmt.Errorf("export stats: %w", err)
		}
		slog.Info("statistics exported", "path", p)
	}
	return nil
}

// flagValues echoes every flag, set or not, for the statistics metadata.
func flagValues(fs *pflag.FlagSet) map[string]any {
	out := map[string]any{}
	fs.VisitAll(func(f *pflag.Flag) {
		out[strings.ReplaceAll(f.Name, "-", "_")] = f.Value.String()
	})
	return out
}

func printSummary(w io.Writer, res *usecase.RunResult) {
	run, rep := res.Run, res.Run.Report
	fmt.Fprintf(w, "Data: %s", res.Meta.Source)
	if res.Meta.SeriesLabel != "" {
		fmt.Fprintf(w, " (%s)", res.Meta.SeriesLabel)
	}
	fmt.Fprintf(w, ", last %s, range %s\n", res.Meta.LastDate, res.Meta.RateRange)
	fmt.Fprintf(w, "Calibration: %s, %s\n", run.Calibration, run.Params)
	if run.FellBack {
		fmt.Fprintf(w, "  MLE did not converge (%s), OLS estimate used\n", res.Calibration.Status)
	}
	if q := run.Quality; q != nil {
		fmt.Fprintf(w, "Fit: rmse=%.6f mean_residual=%.6f residual_autocorr=%.4f (n=%d)\n",
			q.RMSE, q.MeanResidual, q.ResidualAutocorr, q.Observations)
	}
	fmt.Fprintf(w, "Simulation: %d paths, %d steps, dt=%.6f, scheme %s, seed %d\n",
		run.Info.NPaths, run.Info.NSteps, run.Info.DT, run.Info.Scheme, run.Info.Seed)
	fmt.Fprintf(w, "Terminal: mean=%.6f std=%.6f p05=%.6f p95=%.6f\n",
		rep.Terminal.Mean, rep.Terminal.Std, rep.Terminal.P05, rep.Terminal.P95)
	fmt.Fprintf(w, "Analytical: mean=%.6f std=%.6f 90%% [%.6f, %.6f]\n",
		rep.AnalyticalMean, rep.AnalyticalStd, rep.AnalyticalP05, rep.AnalyticalP95)
	fmt.Fprintf(w, "Errors: mean %.4f%%, std %.4f%%\n", 100*rep.MeanRelativeError, 100*rep.StdRelativeError)
	fmt.Fprintf(w, "Paths: volatility=%.6f max_drawdown=%.6f above_r0=%.2f%% negative=%.2f%%\n",
		run.PathStats.MeanPathVolatility, run.PathStats.MeanMaxDrawdown,
		100*run.PathStats.AboveInitial, 100*run.PathStats.NegativeRateProb)
	fmt.Fprintf(w, "Elapsed: %s\n", res.Elapsed)
}
