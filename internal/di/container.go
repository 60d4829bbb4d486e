// Package di provides dependency injection configuration for the PodSkip server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/podskipapp/podskip-server/internal/config"
	"github.com/podskipapp/podskip-server/internal/di/providers"
	"github.com/podskipapp/podskip-server/internal/logger"
	"github.com/podskipapp/podskip-server/internal/player"
	"github.com/podskipapp/podskip-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Events and storage
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideBroadcaster)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideAudioCache)

	// Media and detection backends
	do.Provide(injector, providers.ProvideMedia)
	do.Provide(injector, providers.ProvideLLMClient)

	// Business services
	do.Provide(injector, providers.ProvideEpisodeService)
	do.Provide(injector, providers.ProvideDetectionService)
	do.Provide(injector, providers.ProvidePlaybackService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.Broadcaster](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.CacheHandle](injector)
	_ = do.MustInvoke[*player.ClockMedia](injector)
	_ = do.MustInvoke[*providers.LLMClientHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.EpisodeService](injector)
	_ = do.MustInvoke[*providers.DetectionServiceHandle](injector)
	_ = do.MustInvoke[*providers.PlaybackServiceHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
