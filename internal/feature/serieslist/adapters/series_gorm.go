// Package adapters はserieslistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rate_backend/internal/feature/serieslist/domain/entity"
	"rate_backend/internal/feature/serieslist/usecase"
)

// seriesGorm はSeriesRepositoryインターフェースのgorm実装です。
type seriesGorm struct {
	db *gorm.DB
}

var _ usecase.SeriesRepository = (*seriesGorm)(nil)

// NewSeriesRepository は指定されたDB接続でseriesGormリポジトリの新しいインスタンスを生成します。
func NewSeriesRepository(db *gorm.DB) *seriesGorm {
	return &seriesGorm{db: db}
}

// ListActive はsort_key順にすべてのアクティブな系列を返します。
func (r *seriesGorm) ListActive(ctx context.Context) ([]entity.SeriesDefinition, error) {
	var defs []entity.SeriesDefinition
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("tenor ASC, sort_key ASC").
		Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// ListActiveByTenor はテナーが一致するアクティブな系列をsort_key順に返します。
func (r *seriesGorm) ListActiveByTenor(ctx context.Context, tenor string) ([]entity.SeriesDefinition, error) {
	var defs []entity.SeriesDefinition
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND tenor = ?", true, tenor).
		Order("sort_key ASC").
		Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// SeedDefaults は組み込みのカタログを登録します。既に存在する系列は変更しません。
func (r *seriesGorm) SeedDefaults(ctx context.Context) error {
	defs := make([]entity.SeriesDefinition, len(entity.DefaultSeries))
	copy(defs, entity.DefaultSeries)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&defs).Error
}
