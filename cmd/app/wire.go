//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/lassnet/powerdash/internal/bootstrap"
	"github.com/lassnet/powerdash/internal/domain/energy"
	"github.com/lassnet/powerdash/internal/infra/config"
	"github.com/lassnet/powerdash/internal/infra/purbao"
	httpiface "github.com/lassnet/powerdash/internal/interface/http"
	"github.com/lassnet/powerdash/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideEnergyConfig,
		providePurbaoClient,
		energy.NewService,
		wire.Bind(new(energy.DayFetcher), new(*purbao.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
