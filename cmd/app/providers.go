package main

import (
	"log/slog"

	"github.com/lassnet/powerdash/internal/domain/energy"
	"github.com/lassnet/powerdash/internal/infra/config"
	"github.com/lassnet/powerdash/internal/infra/purbao"
)

func provideEnergyConfig(cfg *config.Config) energy.Config {
	return energy.Config{
		Location:        cfg.Energy.Location(),
		DefaultLookback: cfg.Energy.DefaultLookback,
		MaxLookback:     cfg.Energy.MaxLookback,
		WeatherLookback: cfg.Energy.WeatherLookback,
		Labels:          energy.DefaultLabels(),
	}
}

func providePurbaoClient(cfg *config.Config, logger *slog.Logger) *purbao.Client {
	return purbao.NewClient(purbao.Config{
		BaseURL:     cfg.Energy.BaseURL,
		LoadPath:    cfg.Energy.LoadPath,
		RatioPath:   cfg.Energy.RatioPath,
		WeatherPath: cfg.Energy.WeatherPath,
		Timeout:     cfg.Energy.RequestTimeout,
	}, logger)
}
