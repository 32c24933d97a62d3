//go:build wireinject
// +build wireinject

package di

import (
	"BlockCast/pkg/config"
	"BlockCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Engine
		ProvidePolicy,
		ProvideCalendar,
		ProvideForecaster,
		ProvideEvaluator,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostgresClient,
		ProvideRedisCache,
		ProvideCache,

		// Repositories
		ProvideBarStore,
		ProvideBarSource,
		ProvidePredictionStore,
		ProvidePredictionPublisher,

		// Use cases
		ProvideGenerateUseCase,
		ProvideVerifyUseCase,
		ProvideAccuracyUseCase,

		// Workers
		ProvideQueue,
		ProvideKafkaConsumer,

		// Transport and application
		ProvidePredictionsHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
