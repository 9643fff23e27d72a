// Package adapters はsimulationフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/entity"
	"rate_backend/internal/feature/simulation/usecase"
)

type runGorm struct {
	db *gorm.DB
}

var _ usecase.RunRepository = (*runGorm)(nil)

// NewRunRepository は指定されたDB接続で実行結果リポジトリを生成します。
func NewRunRepository(db *gorm.DB) *runGorm {
	return &runGorm{db: db}
}

// RunModel は1回の実行結果を保存するテーブルです。
// 統計は JSON 列にまとめ、検索に使う列だけを個別に持ちます。
type RunModel struct {
	ID          string                  `gorm:"primaryKey;size:36"`
	SeriesKey   string                  `gorm:"size:128;not null;index"`
	Tenor       string                  `gorm:"size:16"`
	Calibration string                  `gorm:"size:8;not null"`
	FellBack    bool                    `gorm:"not null"`
	Kappa       float64                 `gorm:"not null"`
	Theta       float64                 `gorm:"not null"`
	Sigma       float64                 `gorm:"not null"`
	DT          float64                 `gorm:"column:dt;not null"`
	R0          float64                 `gorm:"column:r0;not null"`
	Scheme      string                  `gorm:"size:8;not null"`
	NPaths      int                     `gorm:"not null"`
	NSteps      int                     `gorm:"not null"`
	Seed        string                  `gorm:"size:20;not null"` // uint64 as decimal; not every driver has unsigned bigint
	Report      entity.ValidationReport `gorm:"serializer:json;type:text"`
	PathStats   entity.PathStats        `gorm:"serializer:json;type:text"`
	Quality     *entity.FitQuality      `gorm:"serializer:json;type:text"`
	CreatedAt   time.Time               `gorm:"index"`
}

func (RunModel) TableName() string {
	return "simulation_runs"
}

func toModel(r entity.Run) RunModel {
	return RunModel{
		ID:          r.ID,
		SeriesKey:   r.SeriesKey,
		Tenor:       r.Tenor,
		Calibration: string(r.Calibration),
		FellBack:    r.FellBack,
		Kappa:       r.Params.Kappa,
		Theta:       r.Params.Theta,
		Sigma:       r.Params.Sigma,
		DT:          r.Params.DT,
		R0:          r.R0,
		Scheme:      string(r.Info.Scheme),
		NPaths:      r.Info.NPaths,
		NSteps:      r.Info.NSteps,
		Seed:        strconv.FormatUint(r.Info.Seed, 10),
		Report:      r.Report,
		PathStats:   r.PathStats,
		Quality:     r.Quality,
		CreatedAt:   r.CreatedAt,
	}
}

func (m RunModel) toEntity() (entity.Run, error) {
	seed, err := strconv.ParseUint(m.Seed, 10, 64)
	if err != nil {
		return entity.Run{}, fmt.Errorf("run %s: parse seed %q: %w", m.ID, m.Seed, err)
	}
	params := entity.ParameterSet{Kappa: m.Kappa, Theta: m.Theta, Sigma: m.Sigma, DT: m.DT}
	return entity.Run{
		ID:          m.ID,
		SeriesKey:   m.SeriesKey,
		Tenor:       m.Tenor,
		Calibration: entity.Method(m.Calibration),
		FellBack:    m.FellBack,
		Params:      params,
		R0:          m.R0,
		Info: entity.SimulationInfo{
			NPaths:    m.NPaths,
			NSteps:    m.NSteps,
			TotalTime: float64(m.NSteps) * m.DT,
			DT:        m.DT,
			Seed:      seed,
			Scheme:    entity.Scheme(m.Scheme),
		},
		Report:    m.Report,
		PathStats: m.PathStats,
		Quality:   m.Quality,
		CreatedAt: m.CreatedAt,
	}, nil
}

// Save は実行結果を1行として保存します。
func (r *runGorm) Save(ctx context.Context, run entity.Run) error {
	m := toModel(run)
	return r.db.WithContext(ctx).Create(&m).Error
}

// FindByID は ID で実行結果を取得します。存在しない場合は ErrRunNotFound を返します。
func (r *runGorm) FindByID(ctx context.Context, id string) (entity.Run, error) {
	var m RunModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Run{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
		}
		return entity.Run{}, err
	}
	return m.toEntity()
}
