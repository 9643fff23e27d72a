// Package handler はratesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"rate_backend/internal/feature/rates/domain"
	"rate_backend/internal/feature/rates/domain/entity"
	"rate_backend/internal/feature/rates/transport/http/dto"
)

// RatesUsecase は金利系列の参照ユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type RatesUsecase interface {
	GetSeries(ctx context.Context, key string, limit int) (entity.RateSeries, error)
}

// RatesHandler は金利系列のHTTPリクエストを処理します。
type RatesHandler struct {
	uc RatesUsecase
}

// NewRatesHandler は指定されたusecaseでRatesHandlerの新しいインスタンスを生成します。
func NewRatesHandler(uc RatesUsecase) *RatesHandler {
	return &RatesHandler{uc: uc}
}

// GetSeries は系列キーを受け取り、保存済みの観測値をJSONで返します。
// キーは "FM/M.U2.EUR.RT.MM.EURIBOR3MD_.HSTA" のようにスラッシュを含むため、ワイルドカードで受け取ります。
//
// エンドポイント例:
// GET /rates/FM/M.U2.EUR.RT.MM.EURIBOR3MD_.HSTA?limit=600
func (h *RatesHandler) GetSeries(c *gin.Context) {
	key := strings.TrimLeft(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "series key is required"})
		return
	}
	// 不正な値は usecase 側でデフォルトに置き換えられる
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	s, err := h.uc.GetSeries(c.Request.Context(), key, limit)
	if err != nil {
		if errors.Is(err, domain.ErrSeriesNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	meta := entity.SeriesMeta{}.Describe(s)
	out := dto.RateSeriesResponse{
		Key:          s.Key,
		Count:        s.Len(),
		LastDate:     meta.LastDate,
		RateRange:    meta.RateRange,
		Observations: make([]dto.ObservationItem, 0, s.Len()),
	}
	for _, o := range s.Observations {
		out.Observations = append(out.Observations, dto.ObservationItem{
			Date: openapi_types.Date{Time: o.Date.UTC()},
			Rate: o.Rate,
		})
	}
	c.JSON(http.StatusOK, out)
}
