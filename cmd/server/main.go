package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"rate_backend/internal/app/di"
	"rate_backend/internal/app/router"
	rateshandler "rate_backend/internal/feature/rates/transport/handler"
	ratesusecase "rate_backend/internal/feature/rates/usecase"
	seriesadapters "rate_backend/internal/feature/serieslist/adapters"
	serieshandler "rate_backend/internal/feature/serieslist/transport/handler"
	seriesusecase "rate_backend/internal/feature/serieslist/usecase"
	simhandler "rate_backend/internal/feature/simulation/transport/handler"
	"rate_backend/internal/platform/config"
	infradb "rate_backend/internal/platform/db"
	"rate_backend/internal/platform/http/handler"
	"rate_backend/internal/platform/logger"
	infraredis "rate_backend/internal/platform/redis"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	cfgPath := fs.String("config", "", "config file (default ./config.yaml if present)")
	fs.String("addr", ":8080", "listen address")
	fs.String("log-level", "info", "debug, info, warn or error")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*cfgPath, fs)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("failed to get sql.DB", "error", err)
		os.Exit(1)
	}

	// Redis
	var rdb *redisv9.Client
	if cfg.Redis.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// Repository
	seriesRepo := seriesadapters.NewSeriesRepository(db)
	if cfg.Database.RunMigrations {
		if err := seriesRepo.SeedDefaults(ctx); err != nil {
			slog.Warn("failed to seed series catalog", "error", err)
		}
	}
	rateRepo := di.NewRateRepository(db, rdb)

	// Usecase
	seriesUC := seriesusecase.NewSeriesUsecase(seriesRepo)
	ratesUC := ratesusecase.NewRatesUsecase(rateRepo)
	loadUC := di.NewLoadUsecase(cfg, di.NewECBClient(cfg.ECB))
	runUC := di.NewRunUsecase(db, loadUC, ratesUC, seriesUC)

	// Handler
	healthH := handler.NewHealthHandler(sqlDB)
	seriesH := serieshandler.NewSeriesHandler(seriesUC)
	ratesH := rateshandler.NewRatesHandler(ratesUC)
	simH := simhandler.NewSimulationHandler(runUC, di.SimulationDefaults(cfg))

	// ルータ生成
	r := router.NewRouter(healthH, seriesH, ratesH, simH, router.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		JWTSecret:   cfg.Auth.JWTSecret,
	})

	// JWT_SECRETチェック（開発中の注意喚起）
	if cfg.Auth.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set. POST /simulations will reject every request.")
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("listening", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
