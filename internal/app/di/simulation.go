package di

import (
	"gorm.io/gorm"

	ratesusecase "rate_backend/internal/feature/rates/usecase"
	seriesusecase "rate_backend/internal/feature/serieslist/usecase"
	simadapters "rate_backend/internal/feature/simulation/adapters"
	simhandler "rate_backend/internal/feature/simulation/transport/handler"
	simusecase "rate_backend/internal/feature/simulation/usecase"
	"rate_backend/internal/platform/config"
)

// NewRunUsecase creates a RunUsecase that stores its runs in db.
func NewRunUsecase(db *gorm.DB, loader *ratesusecase.LoadUsecase, stored simusecase.StoredSeries, catalog *seriesusecase.SeriesUsecase) *simusecase.RunUsecase {
	return simusecase.NewRunUsecase(loader, stored, catalog, simadapters.NewRunRepository(db))
}

// SimulationDefaults maps configuration onto the defaults applied to HTTP requests.
func SimulationDefaults(cfg *config.Config) simhandler.Defaults {
	return simhandler.Defaults{
		Tenor:       cfg.Simulation.Tenor,
		Calibration: cfg.Simulation.Calibration,
		Method:      cfg.Simulation.Method,
		Horizon:     cfg.Simulation.Horizon,
		NPaths:      cfg.Simulation.NPaths,
		DT:          cfg.Simulation.DT,
		MaxPaths:    cfg.Server.MaxPaths,
		MaxHorizon:  cfg.Server.MaxHorizon,
	}
}
