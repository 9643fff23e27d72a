// Package usecase はキャリブレーションからシミュレーション、検証までの一連の処理を実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	ratesentity "rate_backend/internal/feature/rates/domain/entity"
	ratesusecase "rate_backend/internal/feature/rates/usecase"
	seriesentity "rate_backend/internal/feature/serieslist/domain/entity"
	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/calibration"
	"rate_backend/internal/feature/simulation/domain/entity"
	"rate_backend/internal/feature/simulation/domain/montecarlo"
	"rate_backend/internal/feature/simulation/domain/validation"
)

// SeriesLoader はテナーに対する系列をリモートまたはローカルから読み込みます。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type SeriesLoader interface {
	Load(ctx context.Context, tenor string, candidates []ratesusecase.Candidate) (ratesentity.RateSeries, ratesentity.SeriesMeta, error)
}

// StoredSeries は保存済みの系列をキーで参照します。
type StoredSeries interface {
	GetSeries(ctx context.Context, key string, limit int) (ratesentity.RateSeries, error)
}

// Catalog はテナーごとの候補系列を返します。
type Catalog interface {
	CandidatesForTenor(ctx context.Context, tenor string) ([]seriesentity.SeriesDefinition, error)
}

// RunRepository は実行結果の永続化を抽象化します。
type RunRepository interface {
	Save(ctx context.Context, run entity.Run) error
	FindByID(ctx context.Context, id string) (entity.Run, error)
}

// RunRequest は1回の実行の入力です。SeriesKey が空でなければ保存済み系列を使い、
// 空なら Tenor の候補系列を順に試します。
type RunRequest struct {
	SeriesKey   string
	Tenor       string
	Calibration entity.Method
	Scheme      entity.Scheme
	Horizon     int
	NPaths      int
	Seed        *int64
	DT          float64
	FallbackOLS bool
	WithQuality bool
}

// RunResult は実行結果の要約と、エクスポート用のパス全体です。
type RunResult struct {
	Run         entity.Run
	Meta        ratesentity.SeriesMeta
	Calibration calibration.Result
	Ensemble    *entity.PathEnsemble
	Elapsed     time.Duration
}

// RunUsecase は系列の読み込み、キャリブレーション、シミュレーション、検証を順に実行します。
type RunUsecase struct {
	loader  SeriesLoader
	stored  StoredSeries
	catalog Catalog
	runs    RunRepository
	now     func() time.Time
}

// NewRunUsecase は新しい RunUsecase を作成します。stored, catalog, runs は nil にできます。
func NewRunUsecase(loader SeriesLoader, stored StoredSeries, catalog Catalog, runs RunRepository) *RunUsecase {
	return &RunUsecase{loader: loader, stored: stored, catalog: catalog, runs: runs, now: time.Now}
}

// Run は req を実行し、runs が設定されていれば結果を保存します。
func (u *RunUsecase) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	start := u.now()
	if req.DT == 0 {
		req.DT = entity.DefaultDT
	}

	method, err := entity.ParseMethod(string(req.Calibration))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCalibration, err)
	}
	simCfg := entity.SimulationConfig{Horizon: req.Horizon, NPaths: req.NPaths, Seed: req.Seed, Scheme: req.Scheme}
	if err := simCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSimulation, err)
	}

	series, meta, err := u.loadSeries(ctx, req)
	if err != nil {
		return nil, err
	}
	last, _ := series.Last()

	var opts []calibration.Option
	if req.FallbackOLS {
		opts = append(opts, calibration.WithFallback(calibration.FallbackOLS))
	}
	cal, err := calibration.CalibrateDetailed(series, method, req.DT, opts...)
	if err != nil {
		return nil, err
	}
	if cal.FellBack {
		slog.Warn("MLE did not converge, using OLS estimate", "status", cal.Status, "series", series.Key)
	}
	slog.Info("calibrated", "series", series.Key, "method", cal.Used, "params", cal.Params.String(), "observations", cal.Observations)

	ens, err := montecarlo.Simulate(ctx, cal.Params, simCfg, last.Rate)
	if err != nil {
		return nil, err
	}
	report, err := validation.Validate(ens, cal.Params, req.Horizon, cal.Params.DT)
	if err != nil {
		return nil, err
	}
	paths, err := validation.PathStatistics(ens)
	if err != nil {
		return nil, err
	}

	var quality *entity.FitQuality
	if req.WithQuality {
		q, err := calibration.Quality(series, cal.Params)
		if err != nil {
			return nil, err
		}
		quality = &q
	}

	scheme, _ := entity.ParseScheme(string(req.Scheme))
	run := entity.Run{
		ID:          uuid.NewString(),
		SeriesKey:   series.Key,
		Tenor:       series.Tenor,
		Calibration: cal.Used,
		FellBack:    cal.FellBack,
		Params:      cal.Params,
		R0:          last.Rate,
		Info: entity.SimulationInfo{
			NPaths:    ens.Paths(),
			NSteps:    ens.Horizon(),
			TotalTime: report.T,
			DT:        cal.Params.DT,
			Seed:      ens.Seed(),
			Scheme:    scheme,
		},
		Report:    report,
		PathStats: paths,
		Quality:   quality,
		CreatedAt: u.now().UTC(),
	}

	if u.runs != nil {
		if err := u.runs.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	elapsed := u.now().Sub(start)
	slog.Info("simulation run completed",
		"id", run.ID,
		"paths", run.Info.NPaths,
		"steps", run.Info.NSteps,
		"seed", run.Info.Seed,
		"mean_rel_error", report.MeanRelativeError,
		"std_rel_error", report.StdRelativeError,
		"elapsed", elapsed,
	)
	return &RunResult{Run: run, Meta: meta, Calibration: cal, Ensemble: ens, Elapsed: elapsed}, nil
}

// GetRun は保存済みの実行結果を返します。
func (u *RunUsecase) GetRun(ctx context.Context, id string) (entity.Run, error) {
	if u.runs == nil {
		return entity.Run{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return u.runs.FindByID(ctx, id)
}

func (u *RunUsecase) loadSeries(ctx context.Context, req RunRequest) (ratesentity.RateSeries, ratesentity.SeriesMeta, error) {
	tenor := strings.ToUpper(strings.TrimSpace(req.Tenor))

	if req.SeriesKey != "" {
		if u.stored == nil {
			return ratesentity.RateSeries{}, ratesentity.SeriesMeta{}, errors.New("stored series are not available")
		}
		s, err := u.stored.GetSeries(ctx, req.SeriesKey, 0)
		if err != nil {
			return ratesentity.RateSeries{}, ratesentity.SeriesMeta{}, err
		}
		s.Tenor = tenor
		return s, ratesentity.SeriesMeta{Source: "store"}.Describe(s), nil
	}

	if u.loader == nil {
		return ratesentity.RateSeries{}, ratesentity.SeriesMeta{}, errors.New("no series loader configured")
	}
	candidates, err := u.candidates(ctx, tenor)
	if err != nil {
		return ratesentity.RateSeries{}, ratesentity.SeriesMeta{}, err
	}
	return u.loader.Load(ctx, tenor, candidates)
}

// candidates はカタログから候補を取得します。カタログが未設定または空のときは組み込みの既定値を使います。
func (u *RunUsecase) candidates(ctx context.Context, tenor string) ([]ratesusecase.Candidate, error) {
	var defs []seriesentity.SeriesDefinition
	if u.catalog != nil {
		var err error
		if defs, err = u.catalog.CandidatesForTenor(ctx, tenor); err != nil {
			return nil, fmt.Errorf("series catalog: %w", err)
		}
	}
	if len(defs) == 0 {
		for _, d := range seriesentity.DefaultSeries {
			if d.Tenor == tenor {
				defs = append(defs, d)
			}
		}
	}

	out := make([]ratesusecase.Candidate, 0, len(defs))
	for _, d := range defs {
		out = append(out, ratesusecase.Candidate{Key: d.FullKey(), Label: d.Label})
	}
	return out, nil
}
