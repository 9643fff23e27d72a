package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	rateshandler "rate_backend/internal/feature/rates/transport/handler"
	serieshandler "rate_backend/internal/feature/serieslist/transport/handler"
	simhandler "rate_backend/internal/feature/simulation/transport/handler"
	"rate_backend/internal/platform/http/handler"
	jwtmw "rate_backend/internal/platform/jwt"
)

// Options はルーティング全体に関わる設定です。
type Options struct {
	CORSOrigins []string
	JWTSecret   string
}

func NewRouter(health *handler.HealthHandler, series *serieshandler.SeriesHandler,
	rates *rateshandler.RatesHandler, sims *simhandler.SimulationHandler, opts Options) *gin.Engine {
	r := gin.Default()

	// ブラウザから参照する場合のみ許可するオリジンを設定
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	// 系列カタログと保存済みの観測値
	r.GET("/series", series.List)
	r.GET("/rates/*key", rates.GetSeries)
	// 実行結果の参照
	r.GET("/simulations/:id", sims.Get)

	// 認証必須のルート
	// シミュレーションの実行は計算コストが高いため JWT を要求する
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(opts.JWTSecret))
	{
		auth.POST("/simulations", sims.Create)
	}

	return r
}
