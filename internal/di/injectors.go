//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"streakd/internal"
	"streakd/internal/controllers"
	"streakd/internal/engagement"
	"streakd/internal/persistence"
	"streakd/internal/providers"
	"streakd/internal/services"
	"streakd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		engagement.SystemClock,
		services.NewDayResolver,
		services.NewThresholds,
		persistence.NewZstdCompressor,
		persistence.NewFileBlobStoreFromConfig,
		persistence.NewRepository,
		wire.Bind(new(services.StateRepository), new(*persistence.Repository)),
		services.NewEngagementService,
		persistence.NewScheduler,
		controllers.NewEngagementController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
