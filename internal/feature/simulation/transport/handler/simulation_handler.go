// Package handler はsimulationフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	ratesdomain "rate_backend/internal/feature/rates/domain"
	"rate_backend/internal/feature/simulation/domain"
	"rate_backend/internal/feature/simulation/domain/entity"
	"rate_backend/internal/feature/simulation/transport/http/dto"
	"rate_backend/internal/feature/simulation/usecase"
)

// RunUsecase は実行とその参照のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type RunUsecase interface {
	Run(ctx context.Context, req usecase.RunRequest) (*usecase.RunResult, error)
	GetRun(ctx context.Context, id string) (entity.Run, error)
}

// Defaults はリクエストで省略された項目の既定値と上限です。
type Defaults struct {
	Tenor       string
	Calibration string
	Method      string
	Horizon     int
	NPaths      int
	DT          float64
	MaxPaths    int
	MaxHorizon  int
}

// SimulationHandler はシミュレーション実行のHTTPリクエストを処理します。
type SimulationHandler struct {
	uc       RunUsecase
	defaults Defaults
}

// NewSimulationHandler は新しい SimulationHandler を作成します。
func NewSimulationHandler(uc RunUsecase, defaults Defaults) *SimulationHandler {
	return &SimulationHandler{uc: uc, defaults: defaults}
}

// Create はキャリブレーションからシミュレーション、検証までを実行し、結果の要約を返します。
//
// エンドポイント例:
// POST /simulations {"tenor": "3M", "calibration": "mle", "method": "exact", "horizon": 252, "n_paths": 10000, "seed": 42}
func (h *SimulationHandler) Create(c *gin.Context) {
	var body dto.RunRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	req := h.toRequest(body)
	if h.defaults.MaxPaths > 0 && req.NPaths > h.defaults.MaxPaths {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("n_paths must not exceed %d", h.defaults.MaxPaths)})
		return
	}
	if h.defaults.MaxHorizon > 0 && req.Horizon > h.defaults.MaxHorizon {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("horizon must not exceed %d", h.defaults.MaxHorizon)})
		return
	}

	res, err := h.uc.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	meta := res.Meta
	c.JSON(http.StatusCreated, dto.FromRun(res.Run, &meta))
}

// Get は保存済みの実行結果を返します。
//
// エンドポイント例:
// GET /simulations/0b7f6a1e-...
func (h *SimulationHandler) Get(c *gin.Context) {
	run, err := h.uc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.FromRun(run, nil))
}

func (h *SimulationHandler) toRequest(b dto.RunRequest) usecase.RunRequest {
	req := usecase.RunRequest{
		SeriesKey:   b.SeriesKey,
		Tenor:       b.Tenor,
		Calibration: entity.Method(b.Calibration),
		Scheme:      entity.Scheme(b.Method),
		Horizon:     b.Horizon,
		NPaths:      b.NPaths,
		Seed:        b.Seed,
		DT:          b.DT,
		FallbackOLS: b.FallbackOLS,
		WithQuality: b.ShowQuality,
	}
	if req.Tenor == "" {
		req.Tenor = h.defaults.Tenor
	}
	if req.Calibration == "" {
		req.Calibration = entity.Method(h.defaults.Calibration)
	}
	if req.Scheme == "" {
		req.Scheme = entity.Scheme(h.defaults.Method)
	}
	if req.Horizon == 0 {
		req.Horizon = h.defaults.Horizon
	}
	if req.NPaths == 0 {
		req.NPaths = h.defaults.NPaths
	}
	if req.DT == 0 {
		req.DT = h.defaults.DT
	}
	return req
}

// statusFor はドメインエラーをHTTPステータスに変換します。
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRunNotFound), errors.Is(err, ratesdomain.ErrSeriesNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrData),
		errors.Is(err, domain.ErrCalibration),
		errors.Is(err, domain.ErrSimulation),
		errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ratesdomain.ErrSourceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
