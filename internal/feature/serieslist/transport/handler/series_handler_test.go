package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"rate_backend/internal/feature/serieslist/domain/entity"
)

// mockSeriesUsecase はSeriesUsecaseインターフェースのモック実装です。
type mockSeriesUsecase struct {
	ListActiveSeriesFunc func(ctx context.Context) ([]entity.SeriesDefinition, error)
}

func (m *mockSeriesUsecase) ListActiveSeries(ctx context.Context) ([]entity.SeriesDefinition, error) {
	if m.ListActiveSeriesFunc != nil {
		return m.ListActiveSeriesFunc(ctx)
	}
	return nil, nil
}

// TestSeriesHandler_List はListハンドラーの各種シナリオをテーブル駆動テストで検証します。
func TestSeriesHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		mockList       func(ctx context.Context) ([]entity.SeriesDefinition, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: catalog entries",
			mockList: func(ctx context.Context) ([]entity.SeriesDefinition, error) {
				return entity.DefaultSeries, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `[
				{"key": "FM/M.U2.EUR.RT.MM.EURIBOR3MD_.HSTA", "tenor": "3M", "label": "Euribor 3M (monthly average)"},
				{"key": "MIR/M.B.U2.EUR.4F.KR.MRR_FR.LEV", "tenor": "3M", "label": "ECB main refinancing rate"}
			]`,
		},
		{
			name: "success: empty list",
			mockList: func(ctx context.Context) ([]entity.SeriesDefinition, error) {
				return nil, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name: "error: usecase failure",
			mockList: func(ctx context.Context) ([]entity.SeriesDefinition, error) {
				return nil, errors.New("database error")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error": "database error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSeriesHandler(&mockSeriesUsecase{ListActiveSeriesFunc: tt.mockList})

			router := gin.New()
			router.GET("/series", h.List)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/series", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
