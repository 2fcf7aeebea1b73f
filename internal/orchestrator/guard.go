package orchestrator

import (
	"context"
	"sync"
	"time"
)

// Guard hands out one-shot dispatch rights per key.
type Guard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// sessionForgetter is implemented by guards whose keys only matter while the
// session lives in this process.
type sessionForgetter interface {
	Forget(sessionID string)
}

const (
	dispatchGenerate = "generate"
	dispatchFeedback = "feedback"
)

const DefaultGuardTTL = 24 * time.Hour

func GuardKey(kind, sessionID string) string {
	return "dispatch:" + kind + ":" + sessionID
}

// MemoryGuard keeps keys until they expire, are released, or their session
// is forgotten.
type MemoryGuard struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	keys map[string]time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return NewMemoryGuardWithTTL(DefaultGuardTTL)
}

func NewMemoryGuardWithTTL(ttl time.Duration) *MemoryGuard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &MemoryGuard{
		ttl:  ttl,
		now:  time.Now,
		keys: make(map[string]time.Time),
	}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, expires := range g.keys {
		if !now.Before(expires) {
			delete(g.keys, k)
		}
	}

	if _, ok := g.keys[key]; ok {
		return false, nil
	}
	g.keys[key] = now.Add(g.ttl)
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.keys, key)
	return nil
}

// Forget drops every dispatch key of a session.
func (g *MemoryGuard) Forget(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.keys, GuardKey(dispatchGenerate, sessionID))
	delete(g.keys, GuardKey(dispatchFeedback, sessionID))
}

func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.keys)
}
