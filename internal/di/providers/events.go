package providers

import (
	"sync"

	"github.com/samber/do/v2"

	"github.com/podskipapp/podskip-server/internal/store"
)

// Broadcaster fans events out to every registered emitter. The store
// and the services all publish through it; the SSE manager is the first
// target and the playback service registers itself later, which breaks
// the store/playback dependency cycle.
type Broadcaster struct {
	mu      sync.RWMutex
	targets []store.EventEmitter
}

// Register adds an emitter target.
func (b *Broadcaster) Register(target store.EventEmitter) {
	b.mu.Lock()
	b.targets = append(b.targets, target)
	b.mu.Unlock()
}

// Emit implements store.EventEmitter.
func (b *Broadcaster) Emit(event any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, target := range b.targets {
		target.Emit(event)
	}
}

// ProvideBroadcaster provides the event fan-out, seeded with the SSE manager.
func ProvideBroadcaster(i do.Injector) (*Broadcaster, error) {
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	b := &Broadcaster{}
	b.Register(sseHandle.Manager)
	return b, nil
}
