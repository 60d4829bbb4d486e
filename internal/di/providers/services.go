package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/podskipapp/podskip-server/internal/config"
	"github.com/podskipapp/podskip-server/internal/logger"
	"github.com/podskipapp/podskip-server/internal/player"
	"github.com/podskipapp/podskip-server/internal/service"
	"github.com/podskipapp/podskip-server/internal/watcher"
)

// ProvideEpisodeService provides the episode service.
func ProvideEpisodeService(i do.Injector) (*service.EpisodeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewEpisodeService(storeHandle.Store, cacheHandle.Cache, log.Logger), nil
}

// DetectionServiceHandle wraps the detection service so background runs
// can drain before the store closes.
type DetectionServiceHandle struct {
	*service.DetectionService
}

// Shutdown implements do.Shutdownable.
func (h *DetectionServiceHandle) Shutdown() error {
	h.Wait()
	return nil
}

// ProvideDetectionService provides the detection service.
func ProvideDetectionService(i do.Injector) (*DetectionServiceHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	llmHandle := do.MustInvoke[*LLMClientHandle](i)
	broadcaster := do.MustInvoke[*Broadcaster](i)
	log := do.MustInvoke[*logger.Logger](i)

	var completer service.Completer
	if llmHandle.Client != nil {
		completer = llmHandle.Client
	}

	return &DetectionServiceHandle{
		DetectionService: service.NewDetectionService(storeHandle.Store, completer, broadcaster, log.Logger),
	}, nil
}

// PlaybackServiceHandle wraps the playback service with its watcher
// lifecycle.
type PlaybackServiceHandle struct {
	*service.PlaybackService
	watcher *watcher.Watcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *PlaybackServiceHandle) Shutdown() error {
	h.cancel()
	if h.watcher != nil {
		if err := h.watcher.Stop(); err != nil {
			return err
		}
	}
	h.Stop()
	return nil
}

// ProvidePlaybackService provides the playback service with the skip
// engine running and, when enabled, the cache watcher reconciling disk
// state.
func ProvidePlaybackService(i do.Injector) (*PlaybackServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	media := do.MustInvoke[*player.ClockMedia](i)
	broadcaster := do.MustInvoke[*Broadcaster](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewPlaybackService(storeHandle.Store, cacheHandle.Cache, media, player.NoopCue{}, broadcaster, log.Logger)
	broadcaster.Register(svc)
	svc.Start()

	ctx, cancel := context.WithCancel(context.Background())
	handle := &PlaybackServiceHandle{
		PlaybackService: svc,
		cancel:          cancel,
	}

	if cfg.Cache.Watch {
		w, err := watcher.New(cfg.Cache.AudioPath, log.Logger)
		if err != nil {
			cancel()
			return nil, err
		}
		handle.watcher = w

		go w.Start(ctx)
		go svc.WatchCache(ctx, w)
		log.Info("Cache watcher started", "path", cfg.Cache.AudioPath)
	}

	return handle, nil
}
