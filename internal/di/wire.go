//go:build wireinject
// +build wireinject

package di

import (
	"TradeGate/pkg/config"
	"TradeGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideClock,
		ProvideMetrics,

		// Admission state and policy
		ProvideRegistry,
		ProvideAnalyzer,
		ProvidePolicyEngine,

		// Outbound collaborators
		ProvideRateLimiter,
		ProvideCache,
		ProvideExchangeClient,
		ProvideLiveVolumes,
		ProvideVolumeOracle,
		ProvideCollector,
		ProvidePublisher,

		// Rule chain and background work
		ProvideScorer,
		ProvideReaper,

		// Use cases
		ProvideAdmissionEngine,
		ProvidePlacementWorkflow,

		// HTTP surface and application
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
