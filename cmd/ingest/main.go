package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"rate_backend/internal/app/di"
	rateadapters "rate_backend/internal/feature/rates/adapters"
	seriesadapters "rate_backend/internal/feature/serieslist/adapters"
	seriesusecase "rate_backend/internal/feature/serieslist/usecase"
	"rate_backend/internal/platform/config"
	infradb "rate_backend/internal/platform/db"
	"rate_backend/internal/platform/logger"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load(os.Getenv("RATESIM_CONFIG"), nil)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	closer, err := logger.Init(cfg.Log)
	if err != nil {
		slog.Error("failed to init logger", "error", err)
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	db, err := infradb.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	// キャッシュは次回のサーバー読み込みで再構築されるため、ここでは DB に直接書き込む
	rateRepo := rateadapters.NewRateRepository(db)
	seriesRepo := seriesadapters.NewSeriesRepository(db)
	uc := di.NewIngestUsecase(cfg, rateRepo)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	keys, err := seriesusecase.NewSeriesUsecase(seriesRepo).ListActiveKeys(ctx)
	if err != nil {
		slog.Error("failed to load series", "error", err)
		os.Exit(1)
	}

	n, err := uc.IngestAll(ctx, keys)
	if err != nil {
		slog.Error("ingest aborted", "error", err, "ingested", n)
		os.Exit(1)
	}
	slog.Info("ingest ok", "ingested", n, "series", len(keys))
}
