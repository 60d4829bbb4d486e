package providers

import (
	"github.com/samber/do/v2"

	"github.com/podskipapp/podskip-server/internal/config"
	"github.com/podskipapp/podskip-server/internal/llm"
	"github.com/podskipapp/podskip-server/internal/logger"
	"github.com/podskipapp/podskip-server/internal/media/cache"
	"github.com/podskipapp/podskip-server/internal/player"
)

// CacheHandle wraps the audio cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	h.Cache.Close()
	return nil
}

// ProvideAudioCache provides the episode audio download cache.
func ProvideAudioCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	c, err := cache.New(cfg.Cache.AudioPath, cfg.Cache.MaxConcurrent, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Audio cache ready", "path", cfg.Cache.AudioPath)
	return &CacheHandle{Cache: c}, nil
}

// ProvideMedia provides the headless media transport the skip engine drives.
func ProvideMedia(i do.Injector) (*player.ClockMedia, error) {
	return player.NewClockMedia(), nil
}

// LLMClientHandle wraps the text-generation client. Client is nil when
// no base URL is configured; advanced detection is then unavailable.
type LLMClientHandle struct {
	Client *llm.Client
}

// Shutdown implements do.Shutdownable.
func (h *LLMClientHandle) Shutdown() error {
	if h.Client != nil {
		h.Client.Close()
	}
	return nil
}

// ProvideLLMClient provides the text-generation client for advanced detection.
func ProvideLLMClient(i do.Injector) (*LLMClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.LLM.BaseURL == "" {
		log.Info("No LLM base URL configured, advanced detection unavailable")
		return &LLMClientHandle{}, nil
	}

	client := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.RequestTimeout,
	}, log.Logger)

	log.Info("LLM client ready", "model", cfg.LLM.Model)
	return &LLMClientHandle{Client: client}, nil
}
