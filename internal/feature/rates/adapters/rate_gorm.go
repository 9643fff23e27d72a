// Package adapters はratesフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/rates/usecase"
)

type rateGorm struct {
	db *gorm.DB
}

var _ usecase.RateRepository = (*rateGorm)(nil)

// NewRateRepository は指定されたDB接続で観測値リポジトリを生成します。
func NewRateRepository(db *gorm.DB) *rateGorm {
	return &rateGorm{db: db}
}

// RateObservationModel は1系列・1日分の金利を保存するテーブルです。
type RateObservationModel struct {
	ID        uint      `gorm:"primaryKey"`
	SeriesKey string    `gorm:"size:128;not null;uniqueIndex:rate_series_date,priority:1"`
	Date      time.Time `gorm:"not null;uniqueIndex:rate_series_date,priority:2"`
	Rate      float64   `gorm:"not null"`
}

func (RateObservationModel) TableName() string {
	return "rate_observations"
}

func (r *rateGorm) UpsertBatch(ctx context.Context, key string, obs []entity.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	ms := make([]RateObservationModel, 0, len(obs))
	for _, o := range obs {
		ms = append(ms, RateObservationModel{SeriesKey: key, Date: o.Date.UTC(), Rate: o.Rate})
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "series_key"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate"}),
	}).Create(&ms).Error
}

// Find は最新の limit 件を取得し、日付の昇順に並べ替えて返します。
func (r *rateGorm) Find(ctx context.Context, key string, limit int) ([]entity.Observation, error) {
	var rows []RateObservationModel
	q := r.db.WithContext(ctx).
		Where("series_key = ?", key).
		Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	slices.Reverse(rows)

	out := make([]entity.Observation, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.Observation{Date: m.Date.UTC(), Rate: m.Rate})
	}
	return out, nil
}
