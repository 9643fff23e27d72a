package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rate_backend/internal/feature/serieslist/domain/entity"
	"rate_backend/internal/feature/serieslist/transport/http/dto"
)

// SeriesUsecase は系列カタログに関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type SeriesUsecase interface {
	ListActiveSeries(ctx context.Context) ([]entity.SeriesDefinition, error)
}

// SeriesHandler は系列カタログに関するHTTPリクエストを処理します。
type SeriesHandler struct {
	uc SeriesUsecase
}

// NewSeriesHandler は新しい SeriesHandler を作成します。
func NewSeriesHandler(uc SeriesUsecase) *SeriesHandler {
	return &SeriesHandler{uc: uc}
}

// List は有効な系列の一覧を返すAPIです。
// Usecaseでエラーが発生した場合は500 Internal Server Errorを返します。
func (h *SeriesHandler) List(c *gin.Context) {
	defs, err := h.uc.ListActiveSeries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.SeriesItem, 0, len(defs))
	for _, d := range defs {
		out = append(out, dto.SeriesItem{Key: d.FullKey(), Tenor: d.Tenor, Label: d.Label})
	}
	c.JSON(http.StatusOK, out)
}
